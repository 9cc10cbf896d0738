package alerts

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/rogerio-castellano/stationery-tracker/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"
)

// Source yields the alerts collected since the previous digest. Entries are
// only forgotten once Ack is called with the count Pending reported.
type Source interface {
	Pending(ctx context.Context) ([]models.Alert, int, error)
	Ack(ctx context.Context, n int) error
}

type Mailer interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

// SMTPMailer sends HTML mail through an SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return err
	}
	if err := msg.To(m.cfg.To); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

type productSummary struct {
	name     string
	count    int
	lastSeen time.Time
	message  string
}

// RenderDigest builds the HTML body of the daily digest.
func RenderDigest(alerts []models.Alert, day time.Time) string {
	byProduct := map[string]*productSummary{}
	for _, a := range alerts {
		key := "unknown product"
		if a.ProductID != nil {
			key = fmt.Sprintf("#%d", *a.ProductID)
		}
		s, ok := byProduct[key]
		if !ok {
			s = &productSummary{name: key}
			byProduct[key] = s
		}
		s.count++
		if !a.CreatedAt.Before(s.lastSeen) {
			s.lastSeen = a.CreatedAt
			s.message = a.Message
		}
	}

	summaries := make([]*productSummary, 0, len(byProduct))
	for _, s := range byProduct {
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].count != summaries[j].count {
			return summaries[i].count > summaries[j].count
		}
		return summaries[i].name < summaries[j].name
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "<h2>Low stock digest for %s</h2>", day.Format("2006-01-02"))
	fmt.Fprintf(&sb, "<p>Total alerts: <strong>%d</strong></p>", len(alerts))

	sb.WriteString("<h3>By product</h3><ul>")
	for _, s := range summaries {
		fmt.Fprintf(&sb, "<li><b>%s</b>: %d alert(s), latest: %s</li>",
			html.EscapeString(s.name), s.count, html.EscapeString(s.message))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h3>Full log</h3><ul>")
	for _, a := range alerts {
		fmt.Fprintf(&sb, "<li>%s at %s</li>", html.EscapeString(a.Message), a.CreatedAt.Format(time.RFC822))
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// SendDigest mails the pending alerts and then acknowledges them. It returns the
// number of alerts reported; nothing is sent when there are none. With a nil
// mailer the digest is only logged. A failed send leaves the alerts queued.
func SendDigest(ctx context.Context, src Source, mailer Mailer, now time.Time) (int, error) {
	alerts, read, err := src.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if read == 0 {
		return 0, nil
	}

	if len(alerts) > 0 {
		if mailer == nil {
			log.Info().Int("alerts", len(alerts)).Msg("low stock digest ready, mail is not configured")
		} else {
			subject := fmt.Sprintf("Daily low stock report (%d alerts)", len(alerts))
			if err := mailer.Send(ctx, subject, RenderDigest(alerts, now)); err != nil {
				return 0, fmt.Errorf("failed to send digest: %w", err)
			}
		}
	}

	if err := src.Ack(ctx, read); err != nil {
		return len(alerts), fmt.Errorf("digest sent but queue not cleared: %w", err)
	}
	return len(alerts), nil
}

// nextDigest returns the next occurrence of hour:minute strictly after now.
func nextDigest(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StartDailyDigest sends the digest every day at hour:minute until ctx ends.
func StartDailyDigest(ctx context.Context, src Source, mailer Mailer, hour, minute int) {
	go func() {
		log.Info().Int("hour", hour).Int("minute", minute).Msg("daily low stock digest started")
		for {
			next := nextDigest(time.Now(), hour, minute)
			timer := time.NewTimer(time.Until(next))

			select {
			case <-ctx.Done():
				timer.Stop()
				log.Info().Msg("daily low stock digest stopped")
				return
			case <-timer.C:
				n, err := SendDigest(ctx, src, mailer, time.Now())
				if err != nil {
					log.Error().Err(err).Msg("daily low stock digest failed")
					continue
				}
				log.Info().Int("alerts", n).Msg("daily low stock digest processed")
			}
		}
	}()
}
