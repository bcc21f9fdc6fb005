package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestNotifier(sendErr error) (*EmailNotifier, *[]sentMail) {
	cfg := config.NotifyConfig{
		SMTPAddr: "smtp.example.com:587",
		Username: "bot",
		Password: "secret",
		From:     "rebalancer@example.com",
		To:       []string{"ops@example.com", "me@example.com"},
	}
	var sent []sentMail
	n := NewEmailNotifier(cfg, zerolog.Nop())
	n.SetSender(func(_ context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, auth: a, from: from, to: to, msg: string(msg)})
		return sendErr
	})
	return n, &sent
}

func sampleReport() domain.RunReport {
	return domain.RunReport{
		RunID:             "run-1",
		StartedAt:         time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		ReferenceCurrency: "TWD",
		TotalValue:        100000,
		Actions: []domain.Action{
			{Ticker: "MSFT", Direction: domain.DirectionSell, Currency: "USD", Quantity: 3, CurrentValue: 1500, TargetValue: 600, CurrentPrice: 300, Difference: -900},
			{Ticker: "AAPL", Direction: domain.DirectionBuy, Currency: "USD", Quantity: 2, CurrentValue: 1500, TargetValue: 1800, CurrentPrice: 150, Difference: 300},
		},
	}
}

func TestEmailNotifier_Name(t *testing.T) {
	n, _ := newTestNotifier(nil)
	assert.Equal(t, "email", n.Name())
}

func TestEmailNotifier_SkipsEmptyRun(t *testing.T) {
	n, sent := newTestNotifier(nil)

	err := n.Notify(context.Background(), domain.RunReport{RunID: "run-empty"})
	require.NoError(t, err)
	assert.Empty(t, *sent)
}

func TestEmailNotifier_Sends(t *testing.T) {
	n, sent := newTestNotifier(nil)

	require.NoError(t, n.Notify(context.Background(), sampleReport()))
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", mail.addr)
	assert.NotNil(t, mail.auth)
	assert.Equal(t, "rebalancer@example.com", mail.from)
	assert.Equal(t, []string{"ops@example.com", "me@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: Rebalance 2 actions\r\n")
	assert.Contains(t, mail.msg, "Content-Type: text/html")
	assert.Contains(t, mail.msg, "<th>Current Price</th>")
}

func TestEmailNotifier_SendFailure(t *testing.T) {
	n, _ := newTestNotifier(errors.New("connection refused"))

	err := n.Notify(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestEmailNotifier_NoAuthWithoutUsername(t *testing.T) {
	n, sent := newTestNotifier(nil)
	n.cfg.Username = ""

	require.NoError(t, n.Notify(context.Background(), sampleReport()))
	require.Len(t, *sent, 1)
	assert.Nil(t, (*sent)[0].auth)
}

func TestRenderHTML_PreservesOrder(t *testing.T) {
	body, err := RenderHTML(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, body, "<td>MSFT</td><td>Sell</td><td>3.00000</td><td>$1,500.0000</td><td>$600.0000</td><td>$300.0000</td>")
	assert.Contains(t, body, "NT$100,000.0000")
	assert.Less(t, strings.Index(body, "MSFT"), strings.Index(body, "AAPL"))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Rebalance 0 actions", Subject(domain.RunReport{}))
	assert.Equal(t, "Rebalance 2 actions", Subject(sampleReport()))
}

func TestEmailNotifier_ImplementsNotifier(t *testing.T) {
	var _ domain.Notifier = (*EmailNotifier)(nil)
}

func TestEmailNotifier_SenderGivesUpWithContext(t *testing.T) {
	n, _ := newTestNotifier(nil)
	n.SetSender(func(ctx context.Context, _ string, _ smtp.Auth, _ string, _ []string, _ []byte) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := n.Notify(ctx, sampleReport())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEmailNotifier_CancelledContextSkipsSend(t *testing.T) {
	n, sent := newTestNotifier(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, n.Notify(ctx, sampleReport()), context.Canceled)
	assert.Empty(t, *sent)
}
