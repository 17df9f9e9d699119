// Package notify renders restock messages and hands them to a transport.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/detector"
	"github.com/jonesrussell/north-cloud/restock/internal/domain"
	"github.com/jonesrussell/north-cloud/restock/internal/normalize"
)

var (
	// ErrTransport wraps every failure reported by a Transport.
	ErrTransport = errors.New("notification transport failed")
	// ErrSuppressed is returned when the tracker has already seen the
	// transition. Nothing was sent.
	ErrSuppressed = errors.New("notification already sent")
)

// Transport delivers an HTML message to a channel.
type Transport interface {
	Send(ctx context.Context, message, channel string) error
}

// The rendered text is Telegram HTML: only <b> and <a href> are used.
var (
	availableTmpl = template.Must(template.New("available").Parse(
		"🚀 <b>{{.Name}}</b> #{{.ProductID}} 🚀\n\n" +
			"<b>{{.Name}}</b> ist wieder {{with .Price}}für {{.}}€ {{end}}verfügbar!\n\n" +
			`➡️➡️ Zum Lego Shop <a href="{{.URL}}">#{{.ProductID}}: {{.Name}}</a>`))

	backorderTmpl = template.Must(template.New("backorder").Parse(
		"🚀 <b>{{.Name}}</b> #{{.ProductID}} 🚀\n\n" +
			"Für <b>{{.Name}}</b> sind wieder Nachbestellungen möglich!\n\n" +
			`➡️➡️ Zum Lego Shop <a href="{{.URL}}">#{{.ProductID}}: {{.Name}}</a>`))
)

type messageData struct {
	Name      string
	ProductID int64
	// Price is empty when the stored price is 0, which means unknown.
	Price string
	URL   string
}

// Notifier turns detector decisions into messages on one channel.
type Notifier struct {
	transport Transport
	channel   string
	tracker   Tracker
	logger    logger.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithTracker suppresses repeated sends of the same transition.
func WithTracker(t Tracker) Option {
	return func(n *Notifier) { n.tracker = t }
}

// NewNotifier creates a Notifier sending to channel.
func NewNotifier(transport Transport, channel string, log logger.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		transport: transport,
		channel:   channel,
		logger:    log,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AvailableMessage renders the "available again" message.
func (n *Notifier) AvailableMessage(p *domain.Product) (string, error) {
	return render(availableTmpl, p)
}

// BackorderMessage renders the "backorder possible" message.
func (n *Notifier) BackorderMessage(p *domain.Product) (string, error) {
	return render(backorderTmpl, p)
}

func render(tmpl *template.Template, p *domain.Product) (string, error) {
	data := messageData{
		Name:      p.Name,
		ProductID: p.ProductID,
		URL:       p.URL,
	}
	if p.Price > 0 {
		data.Price = normalize.FormatPrice(p.Price)
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("render %s message: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// Notify sends the message for d. Decisions that do not ask for a
// notification are ignored. ErrSuppressed means the tracker had already
// seen the transition.
func (n *Notifier) Notify(ctx context.Context, d detector.Decision, p *domain.Product) error {
	var (
		msg string
		err error
	)
	switch d.Kind {
	case detector.NotifyAvailable:
		msg, err = n.AvailableMessage(p)
	case detector.NotifyBackorder:
		msg, err = n.BackorderMessage(p)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	if n.tracker != nil {
		first, markErr := n.tracker.MarkNotified(ctx, p.ProductID, d)
		switch {
		case markErr != nil:
			n.logger.Warn("Notification dedup unavailable, sending anyway",
				logger.Int64("product_id", p.ProductID),
				logger.Error(markErr),
			)
		case !first:
			n.logger.Info("Notification already sent for this transition",
				logger.Int64("product_id", p.ProductID),
				logger.String("decision", d.Kind.String()),
				logger.Int64("record_id", d.RecordID),
			)
			return fmt.Errorf("%w: product %d record %d", ErrSuppressed, p.ProductID, d.RecordID)
		}
	}

	if sendErr := n.transport.Send(ctx, msg, n.channel); sendErr != nil {
		if n.tracker != nil {
			if forgetErr := n.tracker.Forget(ctx, p.ProductID, d); forgetErr != nil {
				n.logger.Warn("Failed to clear notification mark",
					logger.Int64("product_id", p.ProductID),
					logger.Error(forgetErr),
				)
			}
		}
		return fmt.Errorf("%w: product %d: %w", ErrTransport, p.ProductID, sendErr)
	}

	n.logger.Info("Notification sent",
		logger.Int64("product_id", p.ProductID),
		logger.String("decision", d.Kind.String()),
		logger.String("from", d.From.String()),
		logger.String("to", d.To.String()),
	)
	return nil
}
