// Package client drives one team through a quiz attempt: it decides what the
// team may do from the quiz window and the server's submission status, keeps
// the attempt on the device, and autosaves progress to the server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	"github.com/formula-ihu/quiz-api/internal/handler/dto"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
	"github.com/formula-ihu/quiz-api/internal/scoring"
)

// State is where the team currently is in the attempt.
type State string

const (
	StateLoading     State = "loading"
	StateUnavailable State = "unavailable"
	StateWaiting     State = "waiting"
	StateReady       State = "ready"
	StateActive      State = "active"
	StateEndForm     State = "endForm"
	StateSubmitted   State = "submitted"
	StateEnded       State = "ended"
)

// MaxWakeup bounds the timer armed while waiting for the quiz to open.
const MaxWakeup = 24 * time.Hour

const maxTimeTaken = int(entity.QuizDuration / time.Second)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in the current state.
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	// ErrIncomplete is returned by Complete while a question has no answer.
	ErrIncomplete = errors.New("every question needs an answer or an explicit skip")
)

// Options tunes the machine. Zero values fall back to the server defaults.
type Options struct {
	AutosaveDebounce time.Duration
	AutosaveInterval time.Duration
	RequestTimeout   time.Duration
	// SubmitGrace keeps an opened end form submittable this long past the end
	// of the window, matching the server's submission grace.
	SubmitGrace time.Duration
	// OnChange is called with the machine locked; it must not call back into the machine.
	OnChange func(State)
}

// EndForm holds the fields collected after the last question.
type EndForm struct {
	PreferredTeamNumber   string
	AlternativeTeamNumber string
	FuelType              string
}

// Machine is the quiz client state machine. It is safe for concurrent use;
// timer callbacks and operator calls serialize on one mutex.
type Machine struct {
	api   API
	store LocalStore
	clock Clock
	opts  Options

	mu         sync.Mutex
	state      State
	config     *dto.QuizConfigResponse
	questions  []entity.Question
	session    *Session
	submission *dto.SubmissionResponse

	wakeTimer     Timer
	endTimer      Timer
	debounceTimer Timer
	intervalTimer Timer
}

// NewMachine creates a machine in the loading state.
func NewMachine(api API, store LocalStore, clock Clock, opts Options) *Machine {
	if opts.AutosaveDebounce <= 0 {
		opts.AutosaveDebounce = 2 * time.Second
	}
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = 30 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.SubmitGrace <= 0 {
		opts.SubmitGrace = 10 * time.Minute
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Machine{api: api, store: store, clock: clock, opts: opts, state: StateLoading}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Config returns the quiz config loaded by Load.
func (m *Machine) Config() *dto.QuizConfigResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Questions returns the frozen question set of the attempt.
func (m *Machine) Questions() []entity.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.Question(nil), m.questions...)
}

// Answers returns a copy of the answers given so far.
func (m *Machine) Answers() entity.Answers {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return entity.Answers{}
	}
	return m.session.Answers.Clone()
}

// CurrentQuestion returns the index of the question on screen.
func (m *Machine) CurrentQuestion() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return 0
	}
	return m.session.CurrentQuestion
}

// Team returns the registered team, or the zero value before Register.
func (m *Machine) Team() entity.TeamInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return entity.TeamInfo{}
	}
	return m.session.Team
}

// TimeTaken is the elapsed attempt time fixed when the end form opened.
func (m *Machine) TimeTaken() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return 0
	}
	return m.session.TimeTaken
}

// Submission returns the persisted submission once the state is submitted.
// Its score and time are the only ones ever shown after submitting.
func (m *Machine) Submission() *dto.SubmissionResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submission
}

// Remaining is the time left until the global end of the quiz window.
func (m *Machine) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		return 0
	}
	left := m.config.EndTime.Sub(m.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Load fetches the quiz, restores the local session and asks the server once
// whether the team already submitted. Every later state follows from that answer.
func (m *Machine) Load(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimers()
	m.setState(StateLoading)

	cfg, err := m.api.GetConfig(ctx)
	if err != nil {
		log.Printf("[QuizClient] Quiz config unavailable: %v", err)
		m.setState(StateUnavailable)
		return m.state
	}
	m.config = cfg

	session, err := m.store.Load()
	if err != nil {
		log.Printf("[QuizClient] Ignoring unreadable local session: %v", err)
		session = nil
	}
	if session != nil && session.QuizID != cfg.ID {
		log.Printf("[QuizClient] Dropping local session of quiz #%d", session.QuizID)
		m.clearLocal()
		session = nil
	}
	m.session = session

	if session != nil && session.Team.Email != "" {
		sub, err := m.api.GetSubmission(ctx, session.Team.Email)
		if err != nil {
			log.Printf("[QuizClient] Submission status unknown for %s: %v", session.Team.Email, err)
			m.setState(StateUnavailable)
			return m.state
		}
		if sub != nil {
			m.markSubmitted(sub)
			return m.state
		}
	}

	m.evaluate()
	return m.state
}

// evaluate derives the state from the clock. Caller holds mu. An attempt whose
// end form is already open stays submittable for the submit grace after the
// window closes; everything else is ended.
func (m *Machine) evaluate() {
	cfg := m.config
	now := m.clock.Now()
	started := m.session != nil && !m.session.StartTime.IsZero()
	pendingEndForm := started && m.session.EndFormOpened
	inGrace := pendingEndForm && !now.After(cfg.EndTime.Add(m.opts.SubmitGrace))

	switch {
	case now.After(cfg.EndTime) && !inGrace:
		m.stopTimers()
		m.setState(StateEnded)
	case !cfg.IsActive:
		m.setState(StateUnavailable)
	case now.Before(cfg.ScheduledStartTime):
		m.setState(StateWaiting)
		m.armWake(cfg.ScheduledStartTime.Sub(now))
	case started:
		m.questions = filterQuestions(cfg, m.session.Team.VehicleCategory)
		m.armInterval()
		if pendingEndForm {
			m.setState(StateEndForm)
			return
		}
		m.setState(StateActive)
		m.armEnd(cfg.EndTime.Sub(now))
	default:
		m.setState(StateReady)
	}
}

// Register starts the attempt for team. A stored server progress for the
// email is resumed rather than restarted.
func (m *Machine) Register(ctx context.Context, team entity.TeamInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return fmt.Errorf("%w: register in %s", ErrInvalidTransition, m.state)
	}
	team.Name = strings.TrimSpace(team.Name)
	team.Email = entity.NormalizeEmail(team.Email)
	if err := validateTeam(team); err != nil {
		return err
	}

	sub, err := m.api.GetSubmission(ctx, team.Email)
	if err != nil {
		return err
	}
	if sub != nil {
		m.markSubmitted(sub)
		return nil
	}

	now := m.clock.Now()
	if now.After(m.config.EndTime) {
		m.evaluate()
		return nil
	}

	m.questions = filterQuestions(m.config, team.VehicleCategory)
	session := &Session{
		QuizID:    m.config.ID,
		Team:      team,
		Answers:   entity.Answers{},
		StartTime: now,
	}
	if progress, err := m.api.GetProgress(ctx, team.Email); err != nil {
		log.Printf("[QuizClient] Could not fetch progress for %s: %v", team.Email, err)
	} else if progress != nil {
		log.Printf("[QuizClient] Resuming attempt of %s started at %s", team.Email, progress.StartTime.Format(time.RFC3339))
		session.Answers = m.keepVisible(progress.Answers)
		session.StartTime = progress.StartTime
		session.CurrentQuestion = progress.CurrentQuestion
	}
	m.session = session
	m.persistLocal()

	m.setState(StateActive)
	m.armEnd(m.config.EndTime.Sub(now))
	m.armInterval()

	if err := m.api.SaveProgress(ctx, m.progressRequest()); err != nil {
		m.handleSaveError(ctx, err)
	}
	return nil
}

// Answer records value for the question at position. An empty value clears the answer.
func (m *Machine) Answer(position int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return fmt.Errorf("%w: answer in %s", ErrInvalidTransition, m.state)
	}
	q := m.question(position)
	if q == nil {
		return fmt.Errorf("%w: question %d is not part of this attempt", apperrors.ErrValidation, position)
	}
	switch {
	case value == "":
		delete(m.session.Answers, position)
	case q.IsScored() && value != entity.NoAnswer && !q.HasOption(value):
		return fmt.Errorf("%w: %q is not an option of question %d", apperrors.ErrValidation, value, position)
	default:
		m.session.Answers[position] = value
	}

	m.persistLocal()
	m.armDebounce()
	return nil
}

// GoTo moves to the question at index i of the frozen set.
func (m *Machine) GoTo(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return fmt.Errorf("%w: navigate in %s", ErrInvalidTransition, m.state)
	}
	if i < 0 || i >= len(m.questions) {
		return fmt.Errorf("%w: question index %d out of range", apperrors.ErrValidation, i)
	}
	m.session.CurrentQuestion = i
	m.persistLocal()
	m.armDebounce()
	return nil
}

// Complete ends the answering phase once every question has an answer.
func (m *Machine) Complete() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive {
		return fmt.Errorf("%w: complete in %s", ErrInvalidTransition, m.state)
	}
	for i := range m.questions {
		if !m.session.Answers.Has(m.questions[i].Position) {
			return fmt.Errorf("%w: question %d", ErrIncomplete, m.questions[i].Position)
		}
	}
	m.toEndForm()
	return nil
}

// toEndForm fixes timeTaken and opens the end form. Caller holds mu.
func (m *Machine) toEndForm() {
	m.session.TimeTaken = elapsed(m.session.StartTime, m.clock.Now(), m.config.EndTime)
	m.session.EndFormOpened = true
	if m.endTimer != nil {
		m.endTimer.Stop()
		m.endTimer = nil
	}
	m.persistLocal()
	m.setState(StateEndForm)
	m.armDebounce()
}

// Submit sends the attempt. On AlreadySubmitted the persisted submission is
// adopted; any other error leaves the end form open for a retry.
func (m *Machine) Submit(ctx context.Context, form EndForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateEndForm {
		return fmt.Errorf("%w: submit in %s", ErrInvalidTransition, m.state)
	}

	team := m.session.Team
	team.PreferredTeamNumber = strings.TrimSpace(form.PreferredTeamNumber)
	team.AlternativeTeamNumber = strings.TrimSpace(form.AlternativeTeamNumber)
	team.FuelType = strings.TrimSpace(form.FuelType)
	if team.VehicleCategory == entity.VehicleEV {
		team.FuelType = ""
	}
	v := &apperrors.ValidationError{}
	if team.PreferredTeamNumber == "" {
		v.Add("preferredTeamNumber", "is required")
	}
	if team.VehicleCategory == entity.VehicleCV && team.FuelType == "" {
		v.Add("fuelType", "is required for CV teams")
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	m.session.Team = team
	m.persistLocal()

	sub, err := m.api.Submit(ctx, m.submitRequest())
	if err != nil {
		var already *AlreadySubmittedError
		if errors.As(err, &already) {
			m.adoptPersisted(ctx, already.Submission)
			return nil
		}
		log.Printf("[QuizClient] Submission failed for %s, end form stays open: %v", team.Email, err)
		return err
	}

	m.markSubmitted(sub)
	return nil
}

// autosave pushes the current progress; it runs from the timers.
func (m *Machine) autosave() {
	m.mu.Lock()
	if (m.state != StateActive && m.state != StateEndForm) || m.session == nil {
		m.mu.Unlock()
		return
	}
	req := m.progressRequest()
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.RequestTimeout)
	defer cancel()

	err := m.api.SaveProgress(ctx, req)
	if err == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.handleSaveError(ctx, err)
}

// handleSaveError reacts to a failed progress save. Caller holds mu.
func (m *Machine) handleSaveError(ctx context.Context, err error) {
	var already *AlreadySubmittedError
	if errors.As(err, &already) {
		if m.state != StateSubmitted {
			m.adoptPersisted(ctx, already.Submission)
		}
		return
	}
	log.Printf("[QuizClient] Progress save failed, next autosave retries: %v", err)
}

// adoptPersisted moves to submitted with the server's values, fetching them
// when the error response did not carry them. Caller holds mu.
func (m *Machine) adoptPersisted(ctx context.Context, sub *dto.SubmissionResponse) {
	if sub == nil && m.session != nil {
		fetched, err := m.api.GetSubmission(ctx, m.session.Team.Email)
		if err != nil {
			log.Printf("[QuizClient] Could not fetch persisted submission: %v", err)
		}
		sub = fetched
	}
	m.markSubmitted(sub)
}

// markSubmitted is the single way into the terminal state. Caller holds mu.
func (m *Machine) markSubmitted(sub *dto.SubmissionResponse) {
	m.stopTimers()
	m.submission = sub
	m.clearLocal()
	m.setState(StateSubmitted)
}

func (m *Machine) onWake() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wakeTimer = nil
	if m.state == StateWaiting {
		m.evaluate()
	}
}

func (m *Machine) onEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endTimer = nil
	if m.state == StateActive {
		log.Printf("[QuizClient] Quiz window closed, opening end form")
		m.toEndForm()
	}
}

func (m *Machine) onInterval() {
	m.mu.Lock()
	if m.state != StateActive && m.state != StateEndForm {
		m.mu.Unlock()
		return
	}
	m.armInterval()
	m.mu.Unlock()

	m.autosave()
}

func (m *Machine) armWake(d time.Duration) {
	if d > MaxWakeup {
		d = MaxWakeup
	}
	if m.wakeTimer != nil {
		m.wakeTimer.Stop()
	}
	m.wakeTimer = m.clock.AfterFunc(d, m.onWake)
}

func (m *Machine) armEnd(d time.Duration) {
	if m.endTimer != nil {
		m.endTimer.Stop()
	}
	m.endTimer = m.clock.AfterFunc(d, m.onEnd)
}

func (m *Machine) armDebounce() {
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = m.clock.AfterFunc(m.opts.AutosaveDebounce, m.autosave)
}

func (m *Machine) armInterval() {
	if m.intervalTimer != nil {
		m.intervalTimer.Stop()
	}
	m.intervalTimer = m.clock.AfterFunc(m.opts.AutosaveInterval, m.onInterval)
}

func (m *Machine) stopTimers() {
	for _, t := range []*Timer{&m.wakeTimer, &m.endTimer, &m.debounceTimer, &m.intervalTimer} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
}

func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}
	m.state = s
	if m.opts.OnChange != nil {
		m.opts.OnChange(s)
	}
}

func (m *Machine) persistLocal() {
	if m.session == nil {
		return
	}
	m.session.SavedAt = m.clock.Now()
	if err := m.store.Save(m.session); err != nil {
		log.Printf("[QuizClient] Local save failed: %v", err)
	}
}

func (m *Machine) clearLocal() {
	if err := m.store.Clear(); err != nil {
		log.Printf("[QuizClient] Local clear failed: %v", err)
	}
}

func (m *Machine) question(position int) *entity.Question {
	for i := range m.questions {
		if m.questions[i].Position == position {
			return &m.questions[i]
		}
	}
	return nil
}

func (m *Machine) keepVisible(answers entity.Answers) entity.Answers {
	kept := entity.Answers{}
	for pos, v := range answers {
		if m.question(pos) != nil {
			kept[pos] = v
		}
	}
	return kept
}

func (m *Machine) progressRequest() dto.ProgressRequest {
	return dto.ProgressRequest{
		TeamName:        m.session.Team.Name,
		TeamEmail:       m.session.Team.Email,
		Answers:         m.session.Answers.Clone(),
		StartTime:       m.session.StartTime,
		CurrentQuestion: m.session.CurrentQuestion,
	}
}

func (m *Machine) submitRequest() dto.SubmitRequest {
	shown := make([]dto.QuestionResponse, 0, len(m.questions))
	for i := range m.questions {
		shown = append(shown, dto.NewQuestionResponse(&m.questions[i]))
	}
	questions, err := json.Marshal(shown)
	if err != nil {
		log.Printf("[QuizClient] Could not encode question audit copy: %v", err)
		questions = nil
	}

	team := m.session.Team
	return dto.SubmitRequest{
		TeamName:              team.Name,
		TeamEmail:             team.Email,
		VehicleCategory:       string(team.VehicleCategory),
		Answers:               m.session.Answers.Clone(),
		TimeTaken:             m.session.TimeTaken,
		Questions:             questions,
		PreferredTeamNumber:   team.PreferredTeamNumber,
		AlternativeTeamNumber: team.AlternativeTeamNumber,
		FuelType:              team.FuelType,
	}
}

func validateTeam(team entity.TeamInfo) error {
	v := &apperrors.ValidationError{}
	if team.Name == "" {
		v.Add("teamName", "is required")
	}
	if _, err := mail.ParseAddress(team.Email); err != nil || !strings.Contains(team.Email, "@") {
		v.Add("teamEmail", "must be a valid email address")
	}
	if !team.VehicleCategory.Valid() {
		v.Add("vehicleCategory", "must be EV or CV")
	}
	return v.OrNil()
}

// filterQuestions applies the same category filter the server scores with.
func filterQuestions(cfg *dto.QuizConfigResponse, vehicle entity.VehicleCategory) []entity.Question {
	questions := make([]entity.Question, 0, len(cfg.Questions))
	for _, q := range cfg.Questions {
		questions = append(questions, entity.Question{
			Position: q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Options:  entity.StringArray(q.Options),
			Category: q.Category,
			ImageURL: q.ImageURL,
			FileURL:  q.FileURL,
		})
	}
	return scoring.FilterQuestions(questions, vehicle)
}

// elapsed is min(now, end) - start in whole seconds, within [0, 2h].
func elapsed(start, now, end time.Time) int {
	if now.After(end) {
		now = end
	}
	secs := int(now.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	if secs > maxTimeTaken {
		return maxTimeTaken
	}
	return secs
}
