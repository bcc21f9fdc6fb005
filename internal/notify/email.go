// Package notify delivers rebalance run results to people.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/utils"
	"github.com/rs/zerolog"
)

// SendFunc delivers one message; it must give up once ctx is done
type SendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier mails the ordered action list of a run as an HTML table
type EmailNotifier struct {
	cfg  config.NotifyConfig
	send SendFunc
	log  zerolog.Logger
}

// NewEmailNotifier creates a new e-mail notifier
func NewEmailNotifier(cfg config.NotifyConfig, log zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:  cfg,
		send: sendMail,
		log:  log.With().Str("notifier", "email").Logger(),
	}
}

// SetSender replaces the SMTP transport
func (n *EmailNotifier) SetSender(send SendFunc) {
	n.send = send
}

// Name implements domain.Notifier
func (n *EmailNotifier) Name() string {
	return "email"
}

// Notify sends the run's actions. A run without actions sends nothing.
func (n *EmailNotifier) Notify(ctx context.Context, report domain.RunReport) error {
	if len(report.Actions) == 0 {
		n.log.Debug().Str("run_id", report.RunID).Msg("No actions, skipping e-mail")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.buildMessage(report)
	if err != nil {
		return err
	}

	if err := n.send(ctx, n.cfg.SMTPAddr, n.auth(), n.cfg.From, n.cfg.To, msg); err != nil {
		return fmt.Errorf("failed to send rebalance e-mail: %w", err)
	}

	n.log.Info().
		Str("run_id", report.RunID).
		Int("actions", len(report.Actions)).
		Strs("to", n.cfg.To).
		Msg("Rebalance e-mail sent")

	return nil
}

func (n *EmailNotifier) auth() smtp.Auth {
	if n.cfg.Username == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(n.cfg.SMTPAddr)
	if err != nil {
		host = n.cfg.SMTPAddr
	}
	return smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, host)
}

// Subject returns the e-mail subject for a report
func Subject(report domain.RunReport) string {
	return fmt.Sprintf("Rebalance %d actions", len(report.Actions))
}

func (n *EmailNotifier) buildMessage(report domain.RunReport) ([]byte, error) {
	body, err := RenderHTML(report)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", Subject(report))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)

	return buf.Bytes(), nil
}

type actionRow struct {
	Ticker       string
	Action       string
	Quantity     string
	CurrentValue string
	TargetValue  string
	CurrentPrice string
}

type reportView struct {
	RunID      string
	StartedAt  string
	TotalValue string
	Rows       []actionRow
}

var reportTemplate = template.Must(template.New("report").Parse(`<html>
<body>
<p>Run {{.RunID}} at {{.StartedAt}}, portfolio value {{.TotalValue}}</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Ticker</th><th>Action</th><th>Quantity</th><th>Current Value</th><th>Target Value</th><th>Current Price</th></tr>
{{- range .Rows}}
<tr><td>{{.Ticker}}</td><td>{{.Action}}</td><td>{{.Quantity}}</td><td>{{.CurrentValue}}</td><td>{{.TargetValue}}</td><td>{{.CurrentPrice}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

// RenderHTML renders the action table of a report
func RenderHTML(report domain.RunReport) (string, error) {
	view := reportView{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"),
		TotalValue: utils.FormatMoney(report.TotalValue, report.ReferenceCurrency),
		Rows:       make([]actionRow, 0, len(report.Actions)),
	}
	for _, a := range report.Actions {
		view.Rows = append(view.Rows, actionRow{
			Ticker:       a.Ticker,
			Action:       string(a.Direction),
			Quantity:     utils.FormatQuantity(a.Quantity),
			CurrentValue: utils.FormatMoney(a.CurrentValue, a.Currency),
			TargetValue:  utils.FormatMoney(a.TargetValue, a.Currency),
			CurrentPrice: utils.FormatMoney(a.CurrentPrice, a.Currency),
		})
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}
