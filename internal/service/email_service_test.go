package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisrepo "github.com/formula-ihu/quiz-api/internal/repository/redis"
)

func TestNewResendEmailService_Validation(t *testing.T) {
	_, err := NewResendEmailService("", "from@example.com", nil)
	assert.Error(t, err)
	_, err = NewResendEmailService("re_key", "", nil)
	assert.Error(t, err)
}

func TestSendQuizConfirmation_SkipsWhenAlreadySent(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache, err := redisrepo.NewCacheRepo(client)
	require.NoError(t, err)
	require.NoError(t, mr.Set(confirmationKey("team@example.com"), "1"))

	svc, err := NewResendEmailService("re_test_key", "Formula IHU <noreply@fihu.gr>", cache)
	require.NoError(t, err)

	// returns before any HTTP call because the dedupe key exists
	err = svc.SendQuizConfirmation(context.Background(), ConfirmationEmail{TeamEmail: "team@example.com"})
	assert.NoError(t, err)
}

func TestNoopEmailService(t *testing.T) {
	svc := &NoopEmailService{}
	assert.NoError(t, svc.SendQuizConfirmation(context.Background(), ConfirmationEmail{TeamEmail: "a@b.c"}))
}

func TestConfirmationBody(t *testing.T) {
	msg := ConfirmationEmail{
		TeamName:        "<Volt>",
		VehicleCategory: "EV",
		Score:           2.5,
		TimeTaken:       3725,
		SubmittedAt:     time.Date(2025, 1, 1, 14, 0, 0, 0, time.UTC),
	}

	assert.Contains(t, confirmationText(msg), "Score: 2.5")
	assert.Contains(t, confirmationText(msg), "Time taken: 01:02:05")
	assert.Contains(t, confirmationHTML(msg), "&lt;Volt&gt;")
}
