package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/target/escrow-api/config"
	"github.com/target/escrow-api/internal/adapters/authroles"
	"github.com/target/escrow-api/internal/adapters/devauth"
	"github.com/target/escrow-api/internal/domain/auth"
	"github.com/target/escrow-api/internal/domain/model"
)

func strPtr(s string) *string { return &s }

func TestWriteLedgerWorkbook(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	payments := []*model.Payment{{
		ID:              "pay-1",
		PaymentIntentID: "pi_123",
		PaymentType:     model.PaymentTypeFull,
		JobID:           "job-1",
		MilestoneID:     "ms-1",
		PayerID:         "client-1",
		PayeeID:         "talent-1",
		Amount:          decimal.RequireFromString("250.50"),
		Currency:        "usd",
		Status:          model.PaymentStatusSucceeded,
		CreatedAt:       created,
		UpdatedAt:       created,
	}}
	transfers := []*model.Transfer{{
		ID:            "tr-1",
		TransferID:    strPtr("tr_abc"),
		AccountID:     "acct_1",
		JobID:         "job-1",
		SourceID:      "ms-1",
		Amount:        decimal.RequireFromString("250.50"),
		Currency:      "usd",
		Status:        model.TransferStatusFailed,
		FailureReason: strPtr("account_closed"),
		CreatedAt:     created,
	}}

	var buf bytes.Buffer
	require.NoError(t, writeLedgerWorkbook(&buf, payments, transfers))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, []string{"Payments", "Transfers"}, f.GetSheetList())

	rows, err := f.GetRows("Payments")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, paymentColumns, rows[0])
	assert.Equal(t, "pi_123", rows[1][1])
	assert.Equal(t, "250.5", rows[1][7])
	assert.Equal(t, "2026-03-01T12:00:00Z", rows[1][11])

	rows, err = f.GetRows("Transfers")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "tr_abc", rows[1][1])
	assert.Equal(t, "", rows[1][3])
	assert.Equal(t, "account_closed", rows[1][9])
}

func TestCollectPages(t *testing.T) {
	t.Parallel()

	total := ledgerPageSize + 3
	var offsets []int
	list := func(_ context.Context, limit, offset int) ([]*int, error) {
		offsets = append(offsets, offset)
		var page []*int
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, &i)
		}
		return page, nil
	}

	got, err := collectPages(context.Background(), list)
	require.NoError(t, err)
	assert.Len(t, got, total)
	assert.Equal(t, []int{0, ledgerPageSize}, offsets)

	_, err = collectPages(context.Background(), func(context.Context, int, int) ([]*int, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
}

func TestRenderStuckTable(t *testing.T) {
	t.Parallel()

	escrowed := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	stuck := []model.StuckMilestone{
		{
			JobID:          "job-7",
			MilestoneID:    "ms-3",
			TalentID:       "talent-9",
			Amount:         decimal.NewFromInt(400),
			CapturedAmount: decimal.NewFromInt(400),
			EscrowedAt:     &escrowed,
			LastTransfer: &model.Transfer{
				Status:        model.TransferStatusFailed,
				FailureReason: strPtr("insufficient_funds"),
			},
		},
		{JobID: "job-8", MilestoneID: "ms-1", Amount: decimal.NewFromInt(10)},
	}

	var buf bytes.Buffer
	renderStuckTable(&buf, stuck)
	out := buf.String()

	assert.Contains(t, out, "job-7")
	assert.Contains(t, out, "ms-3")
	assert.Contains(t, out, "400.00")
	assert.Contains(t, out, "2026-02-10T09:30:00Z")
	assert.Contains(t, out, "failed: insufficient_funds")
	assert.Contains(t, out, "none")
}

func TestWriteStuckFormats(t *testing.T) {
	t.Parallel()

	escrowed := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	stuck := []model.StuckMilestone{{
		JobID:          "job-7",
		MilestoneID:    "ms-3",
		ClientID:       "client-1",
		TalentID:       "talent-9",
		Amount:         decimal.RequireFromString("120.5"),
		CapturedAmount: decimal.RequireFromString("120.5"),
		EscrowedAt:     &escrowed,
	}}

	var buf bytes.Buffer
	require.NoError(t, writeStuck(&buf, "yaml", stuck))

	var got []map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "job-7", got[0]["job"])
	assert.Equal(t, "120.50", got[0]["amount"])
	assert.Equal(t, "2026-02-10T09:30:00Z", got[0]["escrowed_at"])
	assert.Equal(t, "none", got[0]["last_transfer"])

	buf.Reset()
	require.NoError(t, writeStuck(&buf, "json", stuck))
	assert.Contains(t, buf.String(), `"job-7"`)

	require.Error(t, writeStuck(&buf, "csv", stuck))
}

func TestMintDevToken(t *testing.T) {
	t.Parallel()

	cfg := config.AppConfig{IsDev: true}
	cfg.Auth.Dev.Secret = "0123456789abcdef0123"
	cfg.Auth.Dev.Issuer = "escrow-dev"

	t.Run("round trips through the verifier", func(t *testing.T) {
		t.Parallel()
		token, err := mintDevToken(cfg, "user-1", []string{"talent", "admin"}, time.Hour)
		require.NoError(t, err)

		mapper, err := authroles.NewClaimsRoleMapper("", nil)
		require.NoError(t, err)
		v, err := devauth.NewVerifier(devauth.Config{Secret: cfg.Auth.Dev.Secret, Issuer: "escrow-dev", Mapper: mapper})
		require.NoError(t, err)

		id, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", id.UserID)
		assert.ElementsMatch(t, []auth.Role{auth.RoleTalent, auth.RoleAdmin}, id.Roles)
	})

	t.Run("unknown role", func(t *testing.T) {
		t.Parallel()
		_, err := mintDevToken(cfg, "user-1", []string{"owner"}, time.Hour)
		require.ErrorContains(t, err, `unknown role "owner"`)
	})

	t.Run("refused outside dev", func(t *testing.T) {
		t.Parallel()
		prod := cfg
		prod.IsDev = false
		_, err := mintDevToken(prod, "user-1", nil, time.Hour)
		require.Error(t, err)
	})
}

func TestOperatorIdentity(t *testing.T) {
	t.Parallel()

	id := operatorIdentity("ops-jane")
	assert.Equal(t, "cli:ops-jane", id.UserID)
	assert.Equal(t, []auth.Role{auth.RoleAdmin}, id.Roles)
	assert.True(t, id.HasRole(auth.RoleAdmin))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd(&commandContext{})
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "stuck", "ledger", "release-funds", "dev-token"})
}
