package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iftf/duoverkoop/internal/config"
	"github.com/iftf/duoverkoop/internal/queue"
)

func sampleEvent() queue.PurchaseConfirmedEvent {
	return queue.PurchaseConfirmedEvent{
		PurchaseID:       3,
		Name:             "Ada Lovelace",
		Email:            "ada@example.com",
		VerificationCode: "happy-tree-button",
		Performances: []queue.PerformanceInfo{
			{Key: "Wina1104", Name: "Van je familie moet je het maar hebben", Association: "Wina",
				Date: time.Date(2022, 4, 11, 20, 0, 0, 0, time.UTC), PriceCents: 500},
			{Key: "Politika0104", Name: "Working title", Association: "Politika",
				Date: time.Date(2022, 4, 1, 20, 0, 0, 0, time.UTC), PriceCents: 750},
		},
		TotalCents: 1250,
	}
}

func TestEuro(t *testing.T) {
	assert.Equal(t, "€5.00", Euro(500))
	assert.Equal(t, "€12.05", Euro(1205))
	assert.Equal(t, "€0.00", Euro(0))
}

func TestRender(t *testing.T) {
	m := New(config.MailConfig{Festival: "IFTF"}, nil)

	subject, body, err := m.Render(sampleEvent())
	require.NoError(t, err)

	assert.Equal(t, "IFTF duo ticket: happy-tree-button", subject)
	assert.Contains(t, body, "Hi Ada Lovelace,")
	assert.Contains(t, body, "Your verification code: happy-tree-button")
	assert.Contains(t, body, "Mon 11 Apr 20:00 | Wina | Van je familie moet je het maar hebben | €5.00")
	assert.Contains(t, body, "Total: €12.50")
}

func TestPurchaseConfirmed_DisabledDoesNotSend(t *testing.T) {
	m := New(config.MailConfig{Enabled: false, Festival: "IFTF"}, nil)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	assert.NoError(t, m.PurchaseConfirmed(context.Background(), sampleEvent()))
}

func TestPurchaseConfirmed_Sends(t *testing.T) {
	m := New(config.MailConfig{Enabled: true, Host: "smtp.local", Port: 25, From: "tickets@iftf.be", Festival: "IFTF"}, nil)
	m.now = func() time.Time { return time.Date(2022, 4, 1, 12, 0, 0, 0, time.UTC) }

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Nil(t, a)
		assert.Equal(t, "tickets@iftf.be", from)
		return nil
	}

	require.NoError(t, m.PurchaseConfirmed(context.Background(), sampleEvent()))
	assert.Equal(t, "smtp.local:25", gotAddr)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: IFTF duo ticket: happy-tree-button\r\n")
	assert.Contains(t, gotMsg, "Content-Type: text/plain; charset=UTF-8\r\n")
}

func TestPurchaseConfirmed_SendError(t *testing.T) {
	m := New(config.MailConfig{Enabled: true, Host: "smtp.local", Port: 25, Festival: "IFTF"}, nil)
	boom := errors.New("connection refused")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	assert.ErrorIs(t, m.PurchaseConfirmed(context.Background(), sampleEvent()), boom)
}
