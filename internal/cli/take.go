package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/formula-ihu/quiz-api/internal/client"
	"github.com/formula-ihu/quiz-api/internal/domain/entity"
)

// NewTakeCmd runs a quiz attempt from the terminal against a quiz server.
func NewTakeCmd() *cobra.Command {
	var (
		server      string
		sessionPath string
	)

	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take the quiz from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionPath == "" {
				dir, err := os.UserConfigDir()
				if err != nil {
					return fmt.Errorf("no session path given and no user config dir: %w", err)
				}
				sessionPath = filepath.Join(dir, "fihu-quiz", "session.json")
			}

			changes := make(chan client.State, 1)
			machine := client.NewMachine(
				client.NewHTTPAPI(server, 10*time.Second),
				client.NewFileStore(sessionPath),
				client.SystemClock{},
				client.Options{OnChange: func(s client.State) {
					select {
					case changes <- s:
					default:
					}
				}},
			)

			t := &terminal{
				machine: machine,
				changes: changes,
				in:      bufio.NewScanner(cmd.InOrStdin()),
				out:     cmd.OutOrStdout(),
			}
			return t.run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "quiz server base URL")
	cmd.Flags().StringVar(&sessionPath, "session", "", "where to keep the local attempt (default: user config dir)")
	return cmd
}

type terminal struct {
	machine *client.Machine
	changes chan client.State
	in      *bufio.Scanner
	out     io.Writer
}

func (t *terminal) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t.machine.Load(ctx)

	for {
		var err error
		switch t.machine.State() {
		case client.StateUnavailable:
			fmt.Fprintln(t.out, "The quiz is not available right now. Try again later.")
			return nil
		case client.StateEnded:
			fmt.Fprintln(t.out, "The quiz has ended.")
			return nil
		case client.StateSubmitted:
			t.printSubmission()
			return nil
		case client.StateWaiting:
			cfg := t.machine.Config()
			fmt.Fprintf(t.out, "%s starts at %s. Waiting...\n", cfg.Title, cfg.ScheduledStartTime.Local().Format(time.RFC1123))
			for t.machine.State() == client.StateWaiting {
				select {
				case <-t.changes:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		case client.StateReady:
			err = t.register(ctx)
		case client.StateActive:
			err = t.answerOne()
		case client.StateEndForm:
			err = t.endForm(ctx)
		default:
			return fmt.Errorf("unexpected state %s", t.machine.State())
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(t.out, "\nInput closed. Your progress is saved; run take again to resume.")
			return nil
		}
		if err != nil {
			fmt.Fprintf(t.out, "Error: %v\n", err)
		}
	}
}

func (t *terminal) prompt(label string) (string, error) {
	fmt.Fprint(t.out, label)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(t.in.Text()), nil
}

func (t *terminal) register(ctx context.Context) error {
	cfg := t.machine.Config()
	fmt.Fprintf(t.out, "%s\n%s\n\n", cfg.Title, cfg.Instructions)

	name, err := t.prompt("Team name: ")
	if err != nil {
		return err
	}
	email, err := t.prompt("Team email: ")
	if err != nil {
		return err
	}
	category, err := t.prompt("Vehicle category (EV/CV): ")
	if err != nil {
		return err
	}
	vehicle, err := entity.ParseVehicleCategory(category)
	if err != nil {
		return err
	}
	return t.machine.Register(ctx, entity.TeamInfo{Name: name, Email: email, VehicleCategory: vehicle})
}

// answerOne shows the current question and applies one line of input.
func (t *terminal) answerOne() error {
	questions := t.machine.Questions()
	if len(questions) == 0 {
		return t.machine.Complete()
	}
	i := t.machine.CurrentQuestion()
	if i >= len(questions) {
		i = len(questions) - 1
	}
	q := questions[i]
	answers := t.machine.Answers()

	fmt.Fprintf(t.out, "\n[%d/%d, %s left] %s\n", i+1, len(questions), t.machine.Remaining().Round(time.Second), q.Text)
	if q.ImageURL != "" {
		fmt.Fprintf(t.out, "  image: %s\n", q.ImageURL)
	}
	if q.FileURL != "" {
		fmt.Fprintf(t.out, "  file: %s\n", q.FileURL)
	}
	for n, opt := range q.Options {
		fmt.Fprintf(t.out, "  %d) %s\n", n+1, opt)
	}
	if current, ok := answers[q.Position]; ok {
		fmt.Fprintf(t.out, "  current answer: %s\n", current)
	}

	line, err := t.prompt("answer, (s)kip, (p)rev, enter=next, done: ")
	if err != nil {
		return err
	}
	if t.machine.State() != client.StateActive {
		fmt.Fprintln(t.out, "Time is up.")
		return nil
	}

	next := func() error {
		if i+1 < len(questions) {
			return t.machine.GoTo(i + 1)
		}
		return nil
	}

	switch {
	case line == "":
		return next()
	case line == "p":
		if i > 0 {
			return t.machine.GoTo(i - 1)
		}
		return nil
	case line == "done":
		return t.machine.Complete()
	case line == "s":
		if err := t.machine.Answer(q.Position, entity.NoAnswer); err != nil {
			return err
		}
		return next()
	case q.IsScored():
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(q.Options) {
			return fmt.Errorf("pick an option between 1 and %d", len(q.Options))
		}
		if err := t.machine.Answer(q.Position, q.Options[n-1]); err != nil {
			return err
		}
		return next()
	default:
		if err := t.machine.Answer(q.Position, line); err != nil {
			return err
		}
		return next()
	}
}

func (t *terminal) endForm(ctx context.Context) error {
	fmt.Fprintf(t.out, "\nAll done. Time taken: %s\n", time.Duration(t.machine.TimeTaken())*time.Second)

	preferred, err := t.prompt("Preferred team number: ")
	if err != nil {
		return err
	}
	alternative, err := t.prompt("Alternative team number: ")
	if err != nil {
		return err
	}
	form := client.EndForm{PreferredTeamNumber: preferred, AlternativeTeamNumber: alternative}
	if t.machine.Team().VehicleCategory == entity.VehicleCV {
		if form.FuelType, err = t.prompt("Fuel type: "); err != nil {
			return err
		}
	}
	return t.machine.Submit(ctx, form)
}

func (t *terminal) printSubmission() {
	sub := t.machine.Submission()
	if sub == nil {
		fmt.Fprintln(t.out, "Your team has already submitted the quiz.")
		return
	}
	fmt.Fprintf(t.out, "Submitted by %s at %s\nScore: %.2f\nTime taken: %s\n",
		sub.TeamName, sub.SubmittedAt.Local().Format(time.RFC1123), sub.Score, time.Duration(sub.TimeTaken)*time.Second)
}
