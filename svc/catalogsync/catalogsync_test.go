package catalogsync_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/catalogsync/pkg/catalog"
	"github.com/dmitrymomot/catalogsync/pkg/config"
	"github.com/dmitrymomot/catalogsync/pkg/logger"
	"github.com/dmitrymomot/catalogsync/pkg/mirror"
	"github.com/dmitrymomot/catalogsync/pkg/snapshot"
	"github.com/dmitrymomot/catalogsync/svc/catalogsync"
)

const plansYAML = `
plans:
  - id: team
    tier: "2"
    product:
      name: Team
      marketing_features: ["25 seats"]
      features:
        seats: 25
    prices:
      - id: team-monthly
        currency: usd
        unit_amount: 4900
        recurring:
          interval: month
  - id: starter
    tier: "1"
    product:
      name: Starter
    prices:
      - id: starter-setup
        currency: usd
        unit_amount: 1500
`

var exportTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	provider *catalog.MemoryProvider
	store    *mirror.MemoryStore
	plans    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	config.Reset()
	t.Cleanup(config.Reset)

	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(plansYAML), 0o600))

	return &harness{
		provider: catalog.NewMemoryProvider(),
		store:    mirror.NewMemoryStore(),
		plans:    path,
	}
}

// run executes one command and returns its exit code and stdout.
func (h *harness) run(args ...string) (int, string) {
	var stdout, stderr bytes.Buffer
	code := catalogsync.Main(context.Background(), append([]string{"-plans", h.plans}, args...),
		catalogsync.WithProvider(h.provider),
		catalogsync.WithStore(h.store),
		catalogsync.WithLogger(logger.Discard()),
		catalogsync.WithOutput(&stdout),
		catalogsync.WithErrorOutput(&stderr),
		catalogsync.WithClock(func() time.Time { return exportTime }),
	)
	return code, stdout.String()
}

func (h *harness) localProducts(t *testing.T) []mirror.ProductRow {
	t.Helper()
	rows, err := h.store.Products(context.Background())
	require.NoError(t, err)
	return rows
}

func TestMain_CreateIsIdempotent(t *testing.T) {
	h := newHarness(t)

	code, _ := h.run("create")
	require.Equal(t, catalogsync.ExitOK, code)
	code, _ = h.run("create")
	require.Equal(t, catalogsync.ExitOK, code)

	assert.Len(t, h.provider.Products(), 2)
	assert.Len(t, h.provider.Prices(), 2)
	assert.Equal(t, 2, h.provider.Calls(catalog.OpCreateProduct))
	assert.Equal(t, 2, h.provider.Calls(catalog.OpCreatePrice))
}

func TestMain_CreateContinueOnError(t *testing.T) {
	h := newHarness(t)
	h.provider.FailWith(func(op catalog.Op, key string) error {
		if op == catalog.OpCreateProduct && key == "Team" {
			return errors.New("boom")
		}
		return nil
	})

	code, _ := h.run("create")
	assert.Equal(t, catalogsync.ExitError, code)
	assert.Empty(t, h.provider.Products(), "fails fast on the first plan")

	code, _ = h.run("create", "-continue-on-error")
	assert.Equal(t, catalogsync.ExitError, code)
	products := h.provider.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Starter", products[0].Name)
}

func TestMain_ArchiveThenSync(t *testing.T) {
	h := newHarness(t)

	code, _ := h.run("create")
	require.Equal(t, catalogsync.ExitOK, code)
	code, _ = h.run("sync")
	require.Equal(t, catalogsync.ExitOK, code)
	require.Len(t, h.localProducts(t), 2)

	code, _ = h.run("archive", "team")
	require.Equal(t, catalogsync.ExitOK, code)
	for _, p := range h.provider.Products() {
		if p.Name == "Team" {
			assert.False(t, p.Active)
		}
	}

	code, _ = h.run("sync")
	require.Equal(t, catalogsync.ExitOK, code)
	rows := h.localProducts(t)
	require.Len(t, rows, 1)
	assert.Equal(t, "starter", rows[0].ID)

	prices, err := h.store.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, "starter-setup", prices[0].ID)
}

func TestMain_Purge(t *testing.T) {
	h := newHarness(t)

	code, _ := h.run("create")
	require.Equal(t, catalogsync.ExitOK, code)
	code, _ = h.run("sync")
	require.Equal(t, catalogsync.ExitOK, code)

	t.Run("production needs confirmation", func(t *testing.T) {
		code, _ := h.run("-env", "production", "purge")
		assert.Equal(t, catalogsync.ExitError, code)
		assert.Len(t, h.localProducts(t), 2)
	})

	t.Run("confirmed", func(t *testing.T) {
		code, _ := h.run("-env", "prod", "purge", "-yes")
		assert.Equal(t, catalogsync.ExitOK, code)
		assert.Empty(t, h.localProducts(t))
	})

	t.Run("development runs unconfirmed", func(t *testing.T) {
		code, _ := h.run("sync")
		require.Equal(t, catalogsync.ExitOK, code)
		code, _ = h.run("purge")
		assert.Equal(t, catalogsync.ExitOK, code)
		assert.Empty(t, h.localProducts(t))
	})
}

func TestMain_List(t *testing.T) {
	h := newHarness(t)
	code, _ := h.run("create")
	require.Equal(t, catalogsync.ExitOK, code)

	code, out := h.run("list", "products")
	require.Equal(t, catalogsync.ExitOK, code)
	assert.Contains(t, out, "INTERNAL ID")
	assert.Contains(t, out, "team")
	assert.Contains(t, out, "Starter")
	assert.Contains(t, out, catalog.DefaultOwner)

	code, out = h.run("list", "prices", "-all")
	require.Equal(t, catalogsync.ExitOK, code)
	assert.Contains(t, out, "team-monthly")
	assert.Contains(t, out, "4900 USD")
	assert.Contains(t, out, "month")
	assert.Contains(t, out, "one-time")

	code, _ = h.run("list", "widgets")
	assert.Equal(t, catalogsync.ExitUsage, code)
}

func TestMain_Diff(t *testing.T) {
	h := newHarness(t)

	code, out := h.run("diff")
	assert.Equal(t, catalogsync.ExitOK, code)
	assert.Contains(t, out, string(catalog.DiffMissing))
	assert.Contains(t, out, "2 plans: 0 synced, 2 missing, 0 differ")

	code, _ = h.run("diff", "-fail-on-drift")
	assert.Equal(t, catalogsync.ExitError, code)

	code, _ = h.run("create")
	require.Equal(t, catalogsync.ExitOK, code)

	code, out = h.run("diff", "-json", "-fail-on-drift")
	require.Equal(t, catalogsync.ExitOK, code)
	var d catalog.Diff
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, 2, d.Summary.Total)
	assert.Equal(t, 2, d.Summary.Synced)
	assert.False(t, d.HasDrift())
}

func TestMain_Export(t *testing.T) {
	h := newHarness(t)
	code, _ := h.run("create")
	require.Equal(t, catalogsync.ExitOK, code)

	dir := t.TempDir()
	code, out := h.run("export", "-o", dir+"/")
	require.Equal(t, catalogsync.ExitOK, code)

	want := filepath.Join(dir, "catalog-development-20240601T120000Z.json")
	assert.Equal(t, want, strings.TrimSpace(out))

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	var doc struct {
		Environment string            `json:"environment"`
		Owner       string            `json:"owner"`
		Products    []json.RawMessage `json:"products"`
		Prices      []json.RawMessage `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "development", doc.Environment)
	assert.Equal(t, catalog.DefaultOwner, doc.Owner)
	assert.Len(t, doc.Products, 2)
	assert.Len(t, doc.Prices, 2)

	code, _ = h.run("export", "-o", "ftp://example.com/catalog.json")
	assert.Equal(t, catalogsync.ExitError, code)
}

type recordingS3 struct {
	bucket, key string
	body        []byte
}

func (r *recordingS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	r.bucket, r.key = *in.Bucket, *in.Key
	body, err := io.ReadAll(in.Body)
	r.body = body
	return &s3.PutObjectOutput{}, err
}

func TestApp_ExportToS3(t *testing.T) {
	h := newHarness(t)
	t.Setenv("SNAPSHOT_S3_BUCKET", "catalog-backups")
	config.Reset()

	client := &recordingS3{}
	var stdout bytes.Buffer
	app, err := catalogsync.New(catalogsync.Config{Env: "staging", PlansFile: h.plans},
		catalogsync.WithProvider(h.provider),
		catalogsync.WithLogger(logger.Discard()),
		catalogsync.WithOutput(&stdout),
		catalogsync.WithClock(func() time.Time { return exportTime }),
		catalogsync.WithS3Options(snapshot.WithS3Client(client)),
	)
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	_, err = app.Create(ctx)
	require.NoError(t, err)

	loc, err := app.Export(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "s3://catalog-backups/catalog-staging-20240601T120000Z.json", loc)
	assert.Equal(t, "catalog-backups", client.bucket)
	assert.Equal(t, "catalog-staging-20240601T120000Z.json", client.key)
	assert.Contains(t, string(client.body), `"environment": "staging"`)

	loc, err = app.Export(ctx, "s3://other/backups/")
	require.NoError(t, err)
	assert.Equal(t, "s3://other/backups/catalog-staging-20240601T120000Z.json", loc)
}

func TestApp_DiffWithPlans(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	plans, err := catalog.ParsePlans([]byte(plansYAML))
	require.NoError(t, err)

	var stdout bytes.Buffer
	app, err := catalogsync.New(catalogsync.Config{PlansFile: "does-not-exist.yaml"},
		catalogsync.WithPlans(plans[:1]),
		catalogsync.WithProvider(catalog.NewMemoryProvider()),
		catalogsync.WithLogger(logger.Discard()),
		catalogsync.WithOutput(&stdout),
	)
	require.NoError(t, err)

	d, err := app.Diff(context.Background(), false, true)
	assert.ErrorIs(t, err, catalogsync.ErrDrift)
	require.NotNil(t, d)
	assert.Equal(t, 1, d.Summary.Missing)
	assert.Contains(t, stdout.String(), "team-monthly")
}

func TestMain_Usage(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no command", args: nil, want: catalogsync.ExitUsage},
		{name: "unknown command", args: []string{"frobnicate"}, want: catalogsync.ExitUsage},
		{name: "archive without ids", args: []string{"archive"}, want: catalogsync.ExitUsage},
		{name: "list without kind", args: []string{"list"}, want: catalogsync.ExitUsage},
		{name: "sync with args", args: []string{"sync", "now"}, want: catalogsync.ExitUsage},
		{name: "unknown flag", args: []string{"create", "-force"}, want: catalogsync.ExitUsage},
		{name: "unknown environment", args: []string{"-env", "moon", "sync"}, want: catalogsync.ExitUsage},
		{name: "help", args: []string{"help"}, want: catalogsync.ExitOK},
		{name: "help flag", args: []string{"-h"}, want: catalogsync.ExitOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := h.run(tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
	assert.Zero(t, h.provider.Calls(catalog.OpListProducts))
}

func TestMain_MissingPlansFile(t *testing.T) {
	h := newHarness(t)
	h.plans = filepath.Join(t.TempDir(), "missing.yaml")

	code, _ := h.run("create")
	assert.Equal(t, catalogsync.ExitError, code)
	assert.Zero(t, h.provider.Calls(catalog.OpSearchProducts))
}

func TestApp_Store(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	ctx := context.Background()

	t.Run("memory adapter", func(t *testing.T) {
		app, err := catalogsync.New(catalogsync.Config{Adapter: "Memory"}, catalogsync.WithLogger(logger.Discard()))
		require.NoError(t, err)
		defer app.Close()

		s, err := app.Store(ctx)
		require.NoError(t, err)
		assert.IsType(t, &mirror.MemoryStore{}, s)

		again, err := app.Store(ctx)
		require.NoError(t, err)
		assert.Same(t, s, again)
	})

	t.Run("unknown adapter", func(t *testing.T) {
		app, err := catalogsync.New(catalogsync.Config{Adapter: "cassandra"}, catalogsync.WithLogger(logger.Discard()))
		require.NoError(t, err)

		_, err = app.Store(ctx)
		assert.ErrorIs(t, err, catalogsync.ErrUnknownAdapter)
	})
}

func TestApp_Provider(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	app, err := catalogsync.New(catalogsync.Config{Provider: "braintree"}, catalogsync.WithLogger(logger.Discard()))
	require.NoError(t, err)
	_, err = app.Provider()
	assert.ErrorIs(t, err, catalog.ErrUnknownProvider)

	_, err = catalogsync.New(catalogsync.Config{Env: "moon"})
	assert.ErrorIs(t, err, catalogsync.ErrUsage)
}
