package firestore

import (
	"context"
	"errors"
	"strings"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	pfirestore "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/firestore"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const mailCollection = "mail"

// mailDocument follows the contract of the external delivery extension: the
// worker watches the collection for {to, message:{subject, html, text}} shapes.
type mailDocument struct {
	To      string              `firestore:"to"`
	Message mailMessageDocument `firestore:"message"`
}

type mailMessageDocument struct {
	Subject string `firestore:"subject"`
	HTML    string `firestore:"html"`
	Text    string `firestore:"text,omitempty"`
}

// MailRepository enqueues outbound mail documents in Firestore.
type MailRepository struct {
	base *pfirestore.BaseRepository[mailDocument]
}

var _ repositories.MailRepository = (*MailRepository)(nil)

// NewMailRepository constructs a Firestore-backed mail queue.
func NewMailRepository(provider *pfirestore.Provider) (*MailRepository, error) {
	if provider == nil {
		return nil, errors.New("mail repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[mailDocument](provider, mailCollection, nil, nil)
	return &MailRepository{base: base}, nil
}

// Enqueue writes one mail document and returns its generated ID. Delivery is
// asynchronous and owned by the external worker.
func (r *MailRepository) Enqueue(ctx context.Context, msg domain.MailMessage) (string, error) {
	if r == nil || r.base == nil {
		return "", errors.New("mail repository not initialised")
	}
	if strings.TrimSpace(msg.To) == "" {
		return "", errors.New("mail repository: recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return "", errors.New("mail repository: subject is required")
	}

	coll, err := r.base.CollectionRef(ctx)
	if err != nil {
		return "", err
	}
	ref := coll.NewDoc()
	doc := mailDocument{
		To: msg.To,
		Message: mailMessageDocument{
			Subject: msg.Subject,
			HTML:    msg.HTML,
			Text:    msg.Text,
		},
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return "", pfirestore.WrapError("mail.enqueue", err)
	}
	return ref.ID, nil
}
