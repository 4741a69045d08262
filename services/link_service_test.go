package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kaelo-io/referral_backend/models"
)

func TestLinkCreate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.addUser(true)
	program := f.addProgram("Campaign", nil)

	link, err := f.links.Create(ctx, user.ID, &models.LinkRequest{
		ProgramID: program.ID.Hex(),
		Name:      "my-link",
	})
	require.NoError(t, err)
	require.Equal(t, models.LinkStatusActive, link.Status)
	require.Equal(t, user.ID, link.UserID)
	require.Contains(t, link.URL, link.ID.Hex())
	require.Contains(t, link.URL, "/claim")
	require.NotEmpty(t, link.ShortURL)
	require.Empty(t, link.QRCodeBase64)

	t.Run("with QR code", func(t *testing.T) {
		link, err := f.links.Create(ctx, user.ID, &models.LinkRequest{
			ProgramID:     program.ID.Hex(),
			Name:          "qr-link",
			IncludeQRCode: true,
		})
		require.NoError(t, err)
		require.Contains(t, link.QRCodeBase64, "data:image/png;base64,")
	})
}

func TestLinkCreateGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.addUser(true)

	t.Run("inactive program", func(t *testing.T) {
		program := f.addProgram("Inactive", func(p *models.Program) { p.Status = models.ProgramStatusInactive })
		_, err := f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "x"})
		requireValidation(t, err, ReasonProgramNotActive, "not active or has not started")
	})

	t.Run("program not started", func(t *testing.T) {
		program := f.addProgram("Future", func(p *models.Program) {
			p.DateStart = time.Now().UTC().Add(24 * time.Hour)
		})
		_, err := f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "x"})
		requireValidation(t, err, ReasonProgramNotActive, "not active or has not started")
	})

	t.Run("program expired", func(t *testing.T) {
		program := f.addProgram("Past", func(p *models.Program) {
			p.DateEnd = timePtr(time.Now().UTC().Add(-time.Hour))
		})
		_, err := f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "x"})
		requireValidation(t, err, ReasonProgramExpired, "expired on")
	})

	t.Run("completion limit exhausted", func(t *testing.T) {
		program := f.addProgram("Full", func(p *models.Program) {
			p.CompletionLimit = intPtr(5)
			p.CompletionTotal = 5
		})
		_, err := f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "x"})
		requireValidation(t, err, ReasonCompletionLimit, "has reached its completion limit")
	})

	t.Run("country not available", func(t *testing.T) {
		za := f.countryRepo.add("South Africa", "ZA")
		ke := f.countryRepo.add("Kenya", "KE")
		scoped := f.userRepo.add(models.User{Username: "za-user", CountryID: &za.ID})
		program := f.addProgram("KE Campaign", func(p *models.Program) {
			p.CountryIDs = []primitive.ObjectID{ke.ID}
		})
		_, err := f.links.Create(ctx, scoped.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "x"})
		requireValidation(t, err, ReasonCountryNotAvailable, "not available in your country")
	})

	t.Run("second active link without multiple links allowed", func(t *testing.T) {
		program := f.addProgram("Single", nil)
		_, err := f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "first"})
		require.NoError(t, err)
		_, err = f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "second"})
		requireValidation(t, err, ReasonMultipleLinks, "Multiple active referral links are not allowed")
	})

	t.Run("second link allowed once multiple links are enabled", func(t *testing.T) {
		program := f.addProgram("Multi", func(p *models.Program) { p.MultipleLinksAllowed = true })
		_, err := f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "first"})
		require.NoError(t, err)
		_, err = f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "second"})
		require.NoError(t, err)
	})

	t.Run("duplicate name for the same user and program", func(t *testing.T) {
		program := f.addProgram("Named", func(p *models.Program) { p.MultipleLinksAllowed = true })
		_, err := f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "taken"})
		require.NoError(t, err)
		_, err = f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "Taken"})
		requireValidation(t, err, ReasonDuplicateName, "already exists for the current user")
	})

	t.Run("unknown program", func(t *testing.T) {
		_, err := f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: primitive.NewObjectID().Hex(), Name: "x"})
		require.ErrorAs(t, err, new(*NotFoundError))
	})

	t.Run("short link failure aborts creation", func(t *testing.T) {
		program := f.addProgram("Shortless", nil)
		f.shortener.fail = true
		defer func() { f.shortener.fail = false }()

		_, err := f.links.Create(ctx, user.ID, &models.LinkRequest{ProgramID: program.ID.Hex(), Name: "x"})
		require.Error(t, err)

		existing, lookupErr := f.links.GetByNameOrNil(ctx, user.ID, program.ID, "x")
		require.NoError(t, lookupErr)
		require.Nil(t, existing)
	})
}

func TestLinkCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.addUser(true)
	program := f.addProgram("Campaign", func(p *models.Program) { p.MultipleLinksAllowed = true })

	link := f.addLink(user.ID, program.ID, "to-cancel", nil)

	cancelled, err := f.links.Cancel(ctx, user.ID, false, link.ID)
	require.NoError(t, err)
	require.Equal(t, models.LinkStatusCancelled, cancelled.Status)

	t.Run("cancelling again is a no-op", func(t *testing.T) {
		again, err := f.links.Cancel(ctx, user.ID, false, link.ID)
		require.NoError(t, err)
		require.Equal(t, models.LinkStatusCancelled, again.Status)
	})

	t.Run("expired link cannot be cancelled", func(t *testing.T) {
		expired := f.addLink(user.ID, program.ID, "expired", func(l *models.Link) {
			l.Status = models.LinkStatusExpired
		})
		_, err := f.links.Cancel(ctx, user.ID, false, expired.ID)
		requireValidation(t, err, ReasonLinkNotCancellable, "can no longer be cancelled")
	})

	t.Run("foreign link reads as missing", func(t *testing.T) {
		other := f.addUser(true)
		foreign := f.addLink(other.ID, program.ID, "foreign", nil)
		_, err := f.links.Cancel(ctx, user.ID, false, foreign.ID)
		require.ErrorAs(t, err, new(*NotFoundError))
	})

	t.Run("admin can cancel any link", func(t *testing.T) {
		other := f.addUser(true)
		admin := f.addUser(true)
		foreign := f.addLink(other.ID, program.ID, "admin-cancel", nil)
		cancelled, err := f.links.Cancel(ctx, admin.ID, true, foreign.ID)
		require.NoError(t, err)
		require.Equal(t, models.LinkStatusCancelled, cancelled.Status)
	})
}

func TestLinkGetByID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.addUser(true)
	program := f.addProgram("Campaign", nil)
	link := f.addLink(user.ID, program.ID, "mine", nil)

	got, err := f.links.GetByID(ctx, user.ID, false, link.ID, false)
	require.NoError(t, err)
	require.Equal(t, link.ID, got.ID)

	t.Run("with QR code on demand", func(t *testing.T) {
		got, err := f.links.GetByID(ctx, user.ID, false, link.ID, true)
		require.NoError(t, err)
		require.Contains(t, got.QRCodeBase64, "data:image/png;base64,")
	})

	t.Run("missing link", func(t *testing.T) {
		_, err := f.links.GetByID(ctx, user.ID, false, primitive.NewObjectID(), false)
		require.ErrorAs(t, err, new(*NotFoundError))
	})
}

func requireValidation(t *testing.T, err error, reason Reason, messagePart string) {
	t.Helper()
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, reason, validationErr.Reason)
	require.Contains(t, validationErr.Message, messagePart)
}
