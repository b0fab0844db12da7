package mail

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/jugendwerk/aktionsabrechnung/internal/models"
)

// ExportRecorderInterface records a successful delivery on the export.
type ExportRecorderInterface interface {
	UpdateEmailSent(id int64, emailedTo string, emailedAt time.Time) error
}

// Config holds SMTP and addressing configuration for treasury delivery.
type Config struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	From          string `mapstructure:"from"`
	TreasuryEmail string `mapstructure:"treasury_email"`
	SenderName    string `mapstructure:"sender_name"`
}

// Sender delivers export packages to the central treasury via SMTP.
type Sender struct {
	cfg     Config
	records ExportRecorderInterface
	logger  *zap.Logger
}

// NewSender creates a new mail sender.
func NewSender(cfg Config, records ExportRecorderInterface, logger *zap.Logger) *Sender {
	return &Sender{cfg: cfg, records: records, logger: logger}
}

// SendStatement emails the statement package for one event to the treasury.
func (s *Sender) SendStatement(ctx context.Context, event *models.Event, record *models.ExportRecord, attachments []string) error {
	s.logger.Info("Sending statement email",
		zap.String("reference", record.ReferenceNumber),
		zap.String("treasury_email", s.cfg.TreasuryEmail))

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.cfg.From, s.cfg.SenderName)
	msg.SetHeader("To", s.cfg.TreasuryEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Abrechnung %s - %s", record.ReferenceNumber, event.Title))
	msg.SetBody("text/plain", s.buildBody(event, record, attachments))
	for _, attachment := range attachments {
		msg.Attach(attachment)
	}

	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		s.logger.Error("Failed to send statement email",
			zap.String("reference", record.ReferenceNumber),
			zap.Error(err))
		return fmt.Errorf("failed to send statement email: %w", err)
	}

	sentAt := time.Now()
	if err := s.records.UpdateEmailSent(record.ID, s.cfg.TreasuryEmail, sentAt); err != nil {
		// Delivery succeeded; a stale record is not worth failing the export.
		s.logger.Error("Failed to update export email status", zap.Error(err))
	}
	record.EmailedTo = s.cfg.TreasuryEmail
	record.EmailedAt = &sentAt

	s.logger.Info("Statement email sent",
		zap.String("reference", record.ReferenceNumber),
		zap.Int("attachment_count", len(attachments)))

	return nil
}

func (s *Sender) buildBody(event *models.Event, record *models.ExportRecord, attachments []string) string {
	body := fmt.Sprintf(`Liebe Landeskasse,

anbei die Abrechnung zur Aktion.

Aktion:        %s
Zeitraum:      %s - %s
Referenz:      %s
Buchungen:     %d
Einnahmen:     %s EUR
Ausgaben:      %s EUR
Saldo:         %s EUR
`,
		event.Title,
		event.StartDate.Format("02.01.2006"),
		event.EndDate.Format("02.01.2006"),
		record.ReferenceNumber,
		record.EntryCount,
		record.IncomeTotal,
		record.ExpenseTotal,
		record.Balance,
	)

	if len(attachments) > 0 {
		body += "\nAnlagen:\n"
		for i, attachment := range attachments {
			body += fmt.Sprintf("%d. %s\n", i+1, filepath.Base(attachment))
		}
	}
	if record.SkippedReceipts != "" {
		body += "\nHinweis: Einzelne Belege konnten nicht angehängt werden; Details im System.\n"
	}

	body += "\nDiese Nachricht wurde automatisch aus der Aktionsabrechnung erzeugt.\n"
	return body
}
