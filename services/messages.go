package services

import (
	"classified-ads-server/models"
	"context"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"
)

// MessageService is the engine behind the messaging endpoints: sending,
// conversation aggregation per view, read state and the delete lifecycle
// (the latter two live in readstate.go and lifecycle.go).
type MessageService struct {
	db        *gorm.DB
	directory Directory
	catalog   Catalog

	// Optional collaborators, nil-safe. main.go wires the real ones;
	// tests leave them empty.
	Limiter  SendLimiter
	Notifier Notifier
	Bus      *InvalidationBus
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{
		db:        db,
		directory: NewDirectory(db),
		catalog:   NewCatalog(db),
	}
}

// SendMessageInput targets either a listing thread or a support thread.
type SendMessageInput struct {
	ListingID       *uint  `json:"listingID"`
	SupportCategory string `json:"supportCategory"`
	ReceiverID      uint   `json:"receiverID"`
	Content         string `json:"content"`
}

// Send validates the target, resolves the receiver and appends the row.
// Listing messages default to the listing's seller when no receiver is named;
// support messages from a requester go to the desk, desk replies must name
// the requester.
func (s *MessageService) Send(ctx context.Context, actor uint, input SendMessageInput) (*models.Message, error) {
	if actor == 0 {
		return nil, ErrUnauthenticated
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	hasListing := input.ListingID != nil
	hasSupport := input.SupportCategory != ""
	if hasListing == hasSupport {
		return nil, ErrInvalidTarget
	}

	message := models.Message{
		SenderID: actor,
		Content:  content,
	}

	if hasListing {
		var listing models.Listing
		err := s.db.WithContext(ctx).First(&listing, *input.ListingID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		if err != nil {
			return nil, err
		}

		receiver := input.ReceiverID
		if receiver == 0 {
			receiver = listing.SellerID
		}
		if receiver == actor {
			// A seller replying must name the buyer; the default would
			// point the message at themselves.
			return nil, ErrInvalidTarget
		}
		message.ListingID = input.ListingID
		message.ReceiverID = receiver
	} else {
		var category models.Category
		err := s.db.WithContext(ctx).
			Where("type = ? AND slug = ? AND is_active = ?", "support", input.SupportCategory, true).
			First(&category).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		if err != nil {
			return nil, err
		}

		desk, err := s.directory.IsSupportDesk(ctx, actor)
		if err != nil {
			return nil, err
		}
		receiver := input.ReceiverID
		if desk {
			if receiver == 0 || receiver == actor {
				return nil, ErrInvalidTarget
			}
		} else {
			if receiver == 0 {
				receiver, err = s.directory.SupportDeskID(ctx)
				if err != nil {
					return nil, err
				}
			}
			if receiver == actor {
				return nil, ErrInvalidTarget
			}
		}
		message.SupportCategory = input.SupportCategory
		message.ReceiverID = receiver
	}

	if s.Limiter != nil {
		allowed, err := s.Limiter.Allow(ctx, actor)
		if err != nil {
			// The quota counter failing must not block sends.
			log.Printf("send limiter unavailable for user %d: %v", actor, err)
		} else if !allowed {
			return nil, ErrSendLimit
		}
	}

	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		go s.Notifier.NotifyNewMessage(message.ReceiverID, message.SenderID, &message)
	}
	s.invalidate(ctx, message.SenderID, message.ReceiverID)

	return &message, nil
}

// GetConversations runs the full aggregation pass for one view: fetch the
// view's rows, bucket them into threads, resolve metadata in batch.
func (s *MessageService) GetConversations(ctx context.Context, actor uint, view View) ([]*Conversation, error) {
	if actor == 0 {
		return nil, ErrUnauthenticated
	}

	actorIsDesk, err := s.directory.IsSupportDesk(ctx, actor)
	if err != nil {
		return nil, err
	}

	var msgs []models.Message
	query, err := s.viewQuery(ctx, actor, view, actorIsDesk)
	if err != nil {
		return nil, err
	}
	if err := query.Order("created_at ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, err
	}

	isDesk, err := s.deskFlags(ctx, msgs, actor, actorIsDesk)
	if err != nil {
		return nil, err
	}

	conversations := groupConversations(msgs, actor, isDesk)
	s.resolveMetadata(ctx, conversations, actor)
	return conversations, nil
}

// viewQuery builds the row filter for one view. The four filters are disjoint
// on deleted_at, so a row is never visible in Incoming/Sent and Deleted at
// the same time.
func (s *MessageService) viewQuery(ctx context.Context, actor uint, view View, actorIsDesk bool) (*gorm.DB, error) {
	db := s.db.WithContext(ctx).Model(&models.Message{})
	switch view {
	case ViewIncoming:
		return db.Where("receiver_id = ? AND deleted_at IS NULL", actor), nil
	case ViewSent:
		return db.Where("sender_id = ? AND deleted_at IS NULL", actor), nil
	case ViewDeleted:
		return db.Where("(sender_id = ? OR receiver_id = ?) AND deleted_at IS NOT NULL", actor, actor), nil
	case ViewSupport:
		db = db.Where("support_category <> '' AND deleted_at IS NULL")
		if actorIsDesk {
			// The desk sees one queue across all requesters.
			return db, nil
		}
		return db.Where("sender_id = ? OR receiver_id = ?", actor, actor), nil
	}
	return nil, ErrNotFound
}

// deskFlags batches the support-desk capability lookup for every participant
// of a support message in the set.
func (s *MessageService) deskFlags(ctx context.Context, msgs []models.Message, actor uint, actorIsDesk bool) (map[uint]bool, error) {
	seen := map[uint]bool{actor: true}
	var ids []uint
	for i := range msgs {
		if !msgs[i].IsSupport() {
			continue
		}
		for _, id := range []uint{msgs[i].SenderID, msgs[i].ReceiverID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	flags, err := s.directory.SupportDesk(ctx, ids)
	if err != nil {
		return nil, err
	}
	flags[actor] = actorIsDesk
	return flags, nil
}

// resolveMetadata fills in counterpart and listing cards. Failures degrade to
// placeholders per conversation; a dead listing or removed account must not
// drop the thread, the rows are the source of truth.
func (s *MessageService) resolveMetadata(ctx context.Context, conversations []*Conversation, actor uint) {
	partySet := make(map[uint]bool)
	listingSet := make(map[uint]bool)
	for _, conv := range conversations {
		if conv.Key.SupportCategory == "" && conv.Key.ListingID != 0 {
			listingSet[conv.Key.ListingID] = true
		}
		if conv.Key.CounterpartID != actor {
			partySet[conv.Key.CounterpartID] = true
		}
	}

	parties, err := s.directory.DisplayNames(ctx, setToSlice(partySet))
	if err != nil {
		log.Printf("conversation metadata: resolving names failed: %v", err)
		parties = map[uint]Party{}
	}
	listings, err := s.catalog.Summaries(ctx, setToSlice(listingSet))
	if err != nil {
		log.Printf("conversation metadata: resolving listings failed: %v", err)
		listings = map[uint]ListingSummary{}
	}

	for _, conv := range conversations {
		if conv.Key.SupportCategory != "" && conv.Key.CounterpartID == actor {
			// Requester side of a support thread.
			conv.OtherParty = Party{Name: "Support Team"}
		} else if party, ok := parties[conv.Key.CounterpartID]; ok {
			conv.OtherParty = party
		} else {
			conv.OtherParty = Party{ID: conv.Key.CounterpartID, Name: "Unknown"}
		}

		if conv.Key.SupportCategory == "" && conv.Key.ListingID != 0 {
			if summary, ok := listings[conv.Key.ListingID]; ok {
				copied := summary
				conv.Listing = &copied
			} else {
				conv.Listing = &ListingSummary{ID: conv.Key.ListingID, Title: "Unknown listing"}
			}
		}
	}
}

func setToSlice(set map[uint]bool) []uint {
	out := make([]uint, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// invalidate signals both participants' refreshers that their views changed.
func (s *MessageService) invalidate(ctx context.Context, userIDs ...uint) {
	if s.Bus == nil {
		return
	}
	s.Bus.Invalidate(ctx, userIDs...)
}
