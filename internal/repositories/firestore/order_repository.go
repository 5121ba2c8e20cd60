package firestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	pfirestore "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/platform/firestore"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/repositories"
)

const orderCollection = "orders"

type extraPlayerDocument struct {
	Name     string `firestore:"name"`
	Number   string `firestore:"number"`
	Size     string `firestore:"size"`
	ImageRef string `firestore:"imageRef,omitempty"`
}

type orderItemDocument struct {
	ID                  string                `firestore:"id"`
	ProductRef          string                `firestore:"productRef"`
	ProductName         string                `firestore:"productName"`
	UnitPrice           int64                 `firestore:"unitPrice"`
	UnitCost            int64                 `firestore:"unitCost"`
	Quantity            int                   `firestore:"quantity"`
	PlayerName          string                `firestore:"playerName,omitempty"`
	PlayerNumber        string                `firestore:"playerNumber,omitempty"`
	Size                string                `firestore:"size,omitempty"`
	Color               string                `firestore:"color,omitempty"`
	Category            string                `firestore:"category,omitempty"`
	ImageRef            string                `firestore:"imageRef,omitempty"`
	ExtraPlayers        []extraPlayerDocument `firestore:"extraPlayers,omitempty"`
	ModifiedFromDefault bool                  `firestore:"modifiedFromDefault"`
}

type customerDocument struct {
	Name             string `firestore:"name"`
	Email            string `firestore:"email"`
	Phone            string `firestore:"phone"`
	MarketingConsent bool   `firestore:"marketingConsent"`
	EmailUpdates     bool   `firestore:"emailUpdates"`
}

type manualDetailsDocument struct {
	Classification string `firestore:"classification"`
	Responsibility string `firestore:"responsibility,omitempty"`
}

type incidentDetailsDocument struct {
	Reason             string `firestore:"reason"`
	Responsibility     string `firestore:"responsibility"`
	SourceOrderID      string `firestore:"sourceOrderId,omitempty"`
	ResolvesIncidentID string `firestore:"resolvesIncidentId,omitempty"`
}

type incidentDocument struct {
	ID                       string    `firestore:"id"`
	ItemID                   string    `firestore:"itemId"`
	Reason                   string    `firestore:"reason"`
	Responsibility           string    `firestore:"responsibility"`
	Resolved                 bool      `firestore:"resolved"`
	LinkedReplacementOrderID string    `firestore:"linkedReplacementOrderId,omitempty"`
	ReportedAt               time.Time `firestore:"reportedAt"`
}

type notificationEntryDocument struct {
	Date       time.Time `firestore:"date"`
	StatusFrom string    `firestore:"statusFrom"`
	StatusTo   string    `firestore:"statusTo"`
	Method     string    `firestore:"method"`
}

type orderDocument struct {
	ClubID         string                      `firestore:"clubId"`
	ClubName       string                      `firestore:"clubName"`
	Items          []orderItemDocument         `firestore:"items"`
	Total          int64                       `firestore:"total"`
	Subtotal       *int64                      `firestore:"subtotal,omitempty"`
	Payment        string                      `firestore:"payment"`
	Status         string                      `firestore:"status"`
	Type           string                      `firestore:"type"`
	Batch          string                      `firestore:"batch"`
	Manual         *manualDetailsDocument      `firestore:"manual,omitempty"`
	Replaced       *incidentDetailsDocument    `firestore:"replaced,omitempty"`
	Incidents      []incidentDocument          `firestore:"incidents,omitempty"`
	Log            []notificationEntryDocument `firestore:"notificationLog,omitempty"`
	Customer       customerDocument            `firestore:"customer"`
	DiscountCode   string                      `firestore:"discountCode,omitempty"`
	DiscountCodeID string                      `firestore:"discountCodeId,omitempty"`
	ManualSeasonID string                      `firestore:"manualSeasonId,omitempty"`
	CreatedAt      time.Time                   `firestore:"createdAt"`
	UpdatedAt      time.Time                   `firestore:"updatedAt"`
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{base: base, provider: provider}, nil
}

// Insert creates the order document; an existing ID yields a conflict.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order repository: order id is required")
	}

	ref, err := r.base.DocumentRef(ctx, order.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, fromDomainOrder(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// Save upserts the order document and returns the stored state.
func (r *OrderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	if _, err := r.base.Set(ctx, order.ID, fromDomainOrder(order)); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// FindByID loads one order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(doc.ID, doc.Data), nil
}

// Delete removes the order permanently.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}
	return r.base.Delete(ctx, orderID)
}

// List returns orders matching the filter, most recent first unless asked otherwise.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	limit := filter.Pagination.PageSize
	if limit < 0 {
		limit = 0
	}
	fetchLimit := limit
	if limit > 0 {
		fetchLimit = limit + 1
	}

	var startAfter []any
	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		tokenTime, tokenID, err := decodeOrderListToken(token)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("order repository: invalid page token: %w", err)
		}
		startAfter = []any{tokenTime, tokenID}
	}

	direction := firestore.Desc
	if filter.Order == domain.SortAsc {
		direction = firestore.Asc
	}

	statuses := make([]string, 0, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses = append(statuses, string(status))
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if clubID := strings.TrimSpace(filter.ClubID); clubID != "" {
			q = q.Where("clubId", "==", clubID)
		}
		if filter.Batch != nil {
			q = q.Where("batch", "==", filter.Batch.String())
		}
		if len(statuses) == 1 {
			q = q.Where("status", "==", statuses[0])
		} else if len(statuses) > 1 {
			// Firestore in clause supports up to 10 values.
			if len(statuses) > 10 {
				statuses = statuses[:10]
			}
			q = q.Where("status", "in", statuses)
		}
		if filter.Payment != "" {
			q = q.Where("payment", "==", string(filter.Payment))
		}
		if filter.CreatedFrom != nil {
			q = q.Where("createdAt", ">=", filter.CreatedFrom.UTC())
		}
		if filter.CreatedTo != nil {
			q = q.Where("createdAt", "<=", filter.CreatedTo.UTC())
		}

		q = q.OrderBy("createdAt", direction).OrderBy(firestore.DocumentID, direction)
		if len(startAfter) == 2 {
			q = q.StartAfter(startAfter...)
		}
		if fetchLimit > 0 {
			q = q.Limit(fetchLimit)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	valueDocs := docs
	nextToken := ""
	if limit > 0 && len(valueDocs) == fetchLimit {
		last := valueDocs[len(valueDocs)-1]
		tokenTime := last.Data.CreatedAt
		if tokenTime.IsZero() {
			tokenTime = last.CreateTime
		}
		nextToken = encodeOrderListToken(tokenTime, last.ID)
		valueDocs = valueDocs[:len(valueDocs)-1]
	}

	items := make([]domain.Order, 0, len(valueDocs))
	for _, doc := range valueDocs {
		items = append(items, toDomainOrder(doc.ID, doc.Data))
	}
	return domain.CursorPage[domain.Order]{Items: items, NextPageToken: nextToken}, nil
}

// ListByBatch returns every order of one club batch without paging.
func (r *OrderRepository) ListByBatch(ctx context.Context, clubID string, batch domain.BatchKey) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, errors.New("order repository: club id is required")
	}
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("order repository: %w", err)
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("clubId", "==", clubID).
			Where("batch", "==", batch.String()).
			OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, toDomainOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

// UpdateStatusForBatch rewrites the status of every order in the batch inside a
// single transaction, appending the notification entry to each order's log.
// A failure on any member aborts the whole set.
func (r *OrderRepository) UpdateStatusForBatch(ctx context.Context, clubID string, batch domain.BatchKey, status domain.OrderStatus, entry domain.NotificationEntry) ([]domain.Order, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return nil, errors.New("order repository not initialised")
	}
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, errors.New("order repository: club id is required")
	}
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("order repository: %w", err)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("order repository: unknown status %q", status)
	}

	coll, err := r.base.CollectionRef(ctx)
	if err != nil {
		return nil, err
	}

	var updated []domain.Order
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated = updated[:0]

		query := coll.Where("clubId", "==", clubID).Where("batch", "==", batch.String())
		iter := tx.Documents(query)
		defer iter.Stop()

		type pendingWrite struct {
			ref *firestore.DocumentRef
			doc orderDocument
		}
		var writes []pendingWrite

		for {
			snapshot, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return err
			}

			decoded, err := r.base.Decode(ctx, snapshot)
			if err != nil {
				return fmt.Errorf("orders decode %s: %w", snapshot.Ref.ID, err)
			}

			doc := decoded.Data
			entryDoc := notificationEntryDocument{
				Date:       entry.Date,
				StatusFrom: doc.Status,
				StatusTo:   string(status),
				Method:     entry.Method,
			}
			doc.Status = string(status)
			doc.Log = append(doc.Log, entryDoc)
			doc.UpdatedAt = entry.Date

			writes = append(writes, pendingWrite{ref: snapshot.Ref, doc: doc})
			updated = append(updated, toDomainOrder(snapshot.Ref.ID, doc))
		}

		// All reads before writes, as Firestore transactions require.
		for _, w := range writes {
			if err := tx.Set(w.ref, w.doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, pfirestore.WrapError("orders.updateStatusForBatch", err)
	}
	return updated, nil
}

// ReplaceIncidents overwrites the order's incident array wholesale.
func (r *OrderRepository) ReplaceIncidents(ctx context.Context, orderID string, incidents []domain.Incident, updatedAt time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}

	docs := make([]incidentDocument, 0, len(incidents))
	for _, incident := range incidents {
		docs = append(docs, fromDomainIncident(incident))
	}
	_, err := r.base.Update(ctx, orderID, []firestore.Update{
		{Path: "incidents", Value: docs},
		{Path: "updatedAt", Value: updatedAt.UTC()},
	})
	return err
}

func fromDomainOrder(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		extras := make([]extraPlayerDocument, 0, len(item.ExtraPlayers))
		for _, extra := range item.ExtraPlayers {
			extras = append(extras, extraPlayerDocument(extra))
		}
		if len(extras) == 0 {
			extras = nil
		}
		items = append(items, orderItemDocument{
			ID:                  item.ID,
			ProductRef:          item.ProductRef,
			ProductName:         item.ProductName,
			UnitPrice:           item.UnitPrice,
			UnitCost:            item.UnitCost,
			Quantity:            item.Quantity,
			PlayerName:          item.PlayerName,
			PlayerNumber:        item.PlayerNumber,
			Size:                item.Size,
			Color:               item.Color,
			Category:            item.Category,
			ImageRef:            item.ImageRef,
			ExtraPlayers:        extras,
			ModifiedFromDefault: item.ModifiedFromDefault,
		})
	}

	doc := orderDocument{
		ClubID:         order.ClubID,
		ClubName:       order.ClubName,
		Items:          items,
		Total:          order.Total,
		Subtotal:       order.Subtotal,
		Payment:        string(order.Payment),
		Status:         string(order.Status),
		Type:           string(order.Type),
		Batch:          order.Batch.String(),
		Customer:       customerDocument(order.Customer),
		DiscountCode:   order.DiscountCode,
		DiscountCodeID: order.DiscountCodeID,
		ManualSeasonID: order.ManualSeasonID,
		CreatedAt:      order.CreatedAt.UTC(),
		UpdatedAt:      order.UpdatedAt.UTC(),
	}

	if order.Manual != nil {
		doc.Manual = &manualDetailsDocument{
			Classification: string(order.Manual.Classification),
			Responsibility: string(order.Manual.Responsibility),
		}
	}
	if order.Replaced != nil {
		doc.Replaced = &incidentDetailsDocument{
			Reason:             order.Replaced.Reason,
			Responsibility:     string(order.Replaced.Responsibility),
			SourceOrderID:      order.Replaced.SourceOrderID,
			ResolvesIncidentID: order.Replaced.ResolvesIncidentID,
		}
	}
	for _, incident := range order.Incidents {
		doc.Incidents = append(doc.Incidents, fromDomainIncident(incident))
	}
	for _, entry := range order.Log {
		doc.Log = append(doc.Log, notificationEntryDocument{
			Date:       entry.Date,
			StatusFrom: string(entry.StatusFrom),
			StatusTo:   string(entry.StatusTo),
			Method:     entry.Method,
		})
	}
	return doc
}

func fromDomainIncident(incident domain.Incident) incidentDocument {
	return incidentDocument{
		ID:                       incident.ID,
		ItemID:                   incident.ItemID,
		Reason:                   incident.Reason,
		Responsibility:           string(incident.Responsibility),
		Resolved:                 incident.Resolved,
		LinkedReplacementOrderID: incident.LinkedReplacementOrderID,
		ReportedAt:               incident.ReportedAt,
	}
}

func toDomainOrder(id string, doc orderDocument) domain.Order {
	items := make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		extras := make([]domain.ExtraPlayer, 0, len(item.ExtraPlayers))
		for _, extra := range item.ExtraPlayers {
			extras = append(extras, domain.ExtraPlayer(extra))
		}
		if len(extras) == 0 {
			extras = nil
		}
		items = append(items, domain.OrderItem{
			ID:                  item.ID,
			ProductRef:          item.ProductRef,
			ProductName:         item.ProductName,
			UnitPrice:           item.UnitPrice,
			UnitCost:            item.UnitCost,
			Quantity:            item.Quantity,
			PlayerName:          item.PlayerName,
			PlayerNumber:        item.PlayerNumber,
			Size:                item.Size,
			Color:               item.Color,
			Category:            item.Category,
			ImageRef:            item.ImageRef,
			ExtraPlayers:        extras,
			ModifiedFromDefault: item.ModifiedFromDefault,
		})
	}

	order := domain.Order{
		ID:             id,
		ClubID:         doc.ClubID,
		ClubName:       doc.ClubName,
		Items:          items,
		Total:          doc.Total,
		Subtotal:       doc.Subtotal,
		Payment:        domain.PaymentMethod(doc.Payment),
		Status:         domain.OrderStatus(doc.Status),
		Type:           domain.OrderType(doc.Type),
		Batch:          domain.ParseBatchKey(doc.Batch),
		Customer:       domain.Customer(doc.Customer),
		DiscountCode:   doc.DiscountCode,
		DiscountCodeID: doc.DiscountCodeID,
		ManualSeasonID: doc.ManualSeasonID,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}

	if doc.Manual != nil {
		order.Manual = &domain.ManualOrderDetails{
			Classification: domain.Classification(doc.Manual.Classification),
			Responsibility: domain.Responsibility(doc.Manual.Responsibility),
		}
	}
	if doc.Replaced != nil {
		order.Replaced = &domain.IncidentDetails{
			Reason:             doc.Replaced.Reason,
			Responsibility:     domain.Responsibility(doc.Replaced.Responsibility),
			SourceOrderID:      doc.Replaced.SourceOrderID,
			ResolvesIncidentID: doc.Replaced.ResolvesIncidentID,
		}
	}
	for _, incident := range doc.Incidents {
		order.Incidents = append(order.Incidents, domain.Incident{
			ID:                       incident.ID,
			ItemID:                   incident.ItemID,
			Reason:                   incident.Reason,
			Responsibility:           domain.Responsibility(incident.Responsibility),
			Resolved:                 incident.Resolved,
			LinkedReplacementOrderID: incident.LinkedReplacementOrderID,
			ReportedAt:               incident.ReportedAt,
		})
	}
	for _, entry := range doc.Log {
		order.Log = append(order.Log, domain.NotificationEntry{
			Date:       entry.Date,
			StatusFrom: domain.OrderStatus(entry.StatusFrom),
			StatusTo:   domain.OrderStatus(entry.StatusTo),
			Method:     entry.Method,
		})
	}
	return order
}

func encodeOrderListToken(createdAt time.Time, docID string) string {
	payload := fmt.Sprintf("%s|%s", createdAt.UTC().Format(time.RFC3339Nano), docID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func decodeOrderListToken(token string) (time.Time, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", err
	}
	parts := strings.SplitN(string(data), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", errors.New("invalid token structure")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", err
	}
	return ts, parts[1], nil
}
