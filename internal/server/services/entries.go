package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/otpx"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/objectstore"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/passvault/internal/vault"
	"github.com/google/uuid"
)

// Presigner is implemented by objectstore.S3Presigner.
type Presigner interface {
	PresignPut(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// ListItem is one row of a listing. Err is set, and View holds only the
// unencrypted fields, when the stored password could not be opened.
type ListItem struct {
	View vault.View
	Err  error
}

// EntryService runs the entry lifecycle for an already authenticated user.
// Every method is scoped by userID.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *vault.Codec
	presigner   Presigner
	logger      logging.Logger
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, codec *vault.Codec, presigner Presigner, logger logging.Logger) *EntryService {
	return &EntryService{
		db:          db,
		repomanager: m,
		codec:       codec,
		presigner:   presigner,
		logger:      logger.With("module", "entries"),
	}
}

// List returns every entry of userID with passwords opened. A record that
// fails to open is reported in its ListItem; the rest of the listing is
// unaffected.
func (s *EntryService) List(ctx context.Context, userID string) ([]ListItem, error) {
	stored, err := s.repomanager.Entries(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}

	items := make([]ListItem, 0, len(stored))
	for _, e := range stored {
		v, err := s.codec.Reveal(e)
		if err != nil {
			s.logger.Error(ctx, "stored password failed to open", "entry_id", e.ID, "error", err)
			items = append(items, ListItem{View: sealedView(e), Err: err})
			continue
		}
		items = append(items, ListItem{View: v})
	}
	return items, nil
}

// Create seals and stores a new entry. An invalid TOTP seed stores nothing.
// Storage-key logos are refused; only LogoUploadURL issues those.
func (s *EntryService) Create(ctx context.Context, userID string, d vault.Draft) (vault.View, error) {
	if objectstore.IsStorageKey(d.Logo) {
		return vault.View{}, fmt.Errorf("%w: storage keys are assigned by the server", common.ErrInvalidLogo)
	}

	e, err := s.codec.Create(userID, d)
	if err != nil {
		return vault.View{}, err
	}
	e.ID = uuid.NewString()

	if err := s.repomanager.Entries(s.db).Create(ctx, e); err != nil {
		return vault.View{}, fmt.Errorf("error creating entry: %w", err)
	}

	s.logger.Info(ctx, "entry created", "entry_id", e.ID, "totp", e.HasTotp())
	return s.codec.Reveal(e)
}

func (s *EntryService) Get(ctx context.Context, userID, id string) (vault.View, error) {
	e, err := s.load(ctx, s.db, userID, id)
	if err != nil {
		return vault.View{}, err
	}
	return s.reveal(ctx, e)
}

// Update applies a partial patch inside a transaction. Fields the patch
// leaves nil are stored unchanged. A storage-key logo is accepted only when
// it belongs to this entry.
func (s *EntryService) Update(ctx context.Context, userID, id string, p vault.Patch) (vault.View, error) {
	var updated *models.Entry

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		e, err := s.load(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if p.IsEmpty() {
			s.logger.Debug(ctx, "empty patch, nothing written", "entry_id", e.ID)
			updated = e
			return nil
		}
		if p.Logo != nil && objectstore.IsStorageKey(*p.Logo) && !objectstore.IsOwnedKey(*p.Logo, userID, e.ID) {
			return fmt.Errorf("%w: key belongs to another entry", common.ErrInvalidLogo)
		}

		next, err := s.codec.Apply(e, p)
		if err != nil {
			return err
		}
		if err := s.repomanager.Entries(tx).Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return vault.View{}, err
	}

	return s.reveal(ctx, updated)
}

func (s *EntryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	return s.repomanager.Entries(s.db).Delete(ctx, userID, id)
}

// Code returns the current one-time code for the entry. ok is false when
// the entry has no seed.
func (s *EntryService) Code(ctx context.Context, userID, id string) (otpx.Code, bool, error) {
	e, err := s.load(ctx, s.db, userID, id)
	if err != nil {
		return otpx.Code{}, false, err
	}
	return s.codec.Code(e)
}

// LogoUploadURL reserves a storage key for the entry's logo, records it as
// the entry's logo reference and returns a presigned upload URL for it.
func (s *EntryService) LogoUploadURL(ctx context.Context, userID, id string) (key, url string, err error) {
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		e, err := s.load(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		key = objectstore.NewLogoKey(userID, e.ID, s.codec.Now())
		url, err = s.presigner.PresignPut(ctx, key)
		if err != nil {
			return fmt.Errorf("error presigning upload: %w", err)
		}

		next, err := s.codec.Apply(e, vault.Patch{Logo: &key})
		if err != nil {
			return err
		}
		return s.repomanager.Entries(tx).Update(ctx, next)
	})
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// LogoURL returns a URL the logo can be fetched from: a presigned download
// URL for stored objects, or the reference itself when it is external.
func (s *EntryService) LogoURL(ctx context.Context, userID, id string) (string, error) {
	e, err := s.load(ctx, s.db, userID, id)
	if err != nil {
		return "", err
	}
	if e.Logo == "" {
		return "", common.ErrNoLogo
	}
	if !objectstore.IsStorageKey(e.Logo) {
		return e.Logo, nil
	}
	if !objectstore.IsOwnedKey(e.Logo, userID, e.ID) {
		s.logger.Warn(ctx, "refusing to presign foreign logo key", "entry_id", e.ID)
		return "", common.ErrNoLogo
	}
	url, err := s.presigner.PresignGet(ctx, e.Logo)
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}
	return url, nil
}

// --- helpers below ---

func (s *EntryService) load(ctx context.Context, db dbx.DBTX, userID, id string) (*models.Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Entries(db).GetByID(ctx, userID, id)
}

func (s *EntryService) reveal(ctx context.Context, e *models.Entry) (vault.View, error) {
	v, err := s.codec.Reveal(e)
	if err != nil && (errors.Is(err, common.ErrIntegrity) || errors.Is(err, common.ErrMalformedToken)) {
		s.logger.Error(ctx, "stored password failed to open", "entry_id", e.ID, "error", err)
	}
	return v, err
}

func sealedView(e *models.Entry) vault.View {
	return vault.View{
		ID:        e.ID,
		UserID:    e.UserID,
		Title:     e.Title,
		Logo:      e.Logo,
		Email:     e.Email,
		Username:  e.Username,
		TotpSeed:  e.TotpSeed,
		CreatedAt: e.CreatedAt,
	}
}
