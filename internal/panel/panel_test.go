package panel_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/atmbitbit/internal/lnbits"
	"github.com/five82/atmbitbit/internal/lnbits/lnbitstest"
	"github.com/five82/atmbitbit/internal/panel"
	"github.com/five82/atmbitbit/internal/state"
)

var testWallets = []lnbits.Wallet{
	{ID: "w1", Name: "Main", AdminKey: "key-1"},
	{ID: "w2", Name: "Shop", AdminKey: "key-2"},
}

func strp(s string) *string { return &s }

type fixture struct {
	srv    *lnbitstest.Server
	client *lnbits.Client
	store  *state.Store
}

func newFixture(t *testing.T, seed ...lnbits.AtmBitBit) fixture {
	t.Helper()
	srv := lnbitstest.New(t, testWallets...)
	srv.Seed(seed...)
	client, err := lnbits.NewClient(srv.URL, lnbits.DefaultExtensionPath)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	store := state.NewStore(client, state.NewSession(testWallets))
	if len(seed) > 0 {
		if err := store.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}
	return fixture{srv: srv, client: client, store: store}
}

var lobby = lnbits.AtmBitBit{
	ID:                   "r1",
	Wallet:               "w2",
	APIKeyID:             "ZZZ",
	APIKeySecret:         strp("c2VjcmV0"),
	APIKeyEncoding:       strp("base64"),
	Name:                 "Lobby",
	FiatCurrency:         "CZK",
	ExchangeRateProvider: "coinmate",
	Fee:                  "1.25",
}

func TestFormCreate(t *testing.T) {
	fx := newFixture(t)
	form := panel.NewForm(fx.store, fx.client)

	form.OpenForCreate()
	if got := form.Draft(); got != panel.DefaultDraft {
		t.Fatalf("Draft() = %+v, want defaults", got)
	}
	form.Set(panel.FieldName, "Station")
	form.Set(panel.FieldWallet, "w1")

	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if form.Open() {
		t.Fatalf("form still open after successful create")
	}
	if got := form.Draft(); got != panel.DefaultDraft {
		t.Fatalf("Draft() after close = %+v, want defaults", got)
	}

	posts := fx.srv.CallsTo(http.MethodPost)
	if len(posts) != 1 {
		t.Fatalf("POST calls = %d, want 1", len(posts))
	}
	if posts[0].AdminKey != "key-1" {
		t.Fatalf("POST admin key = %q, want key-1", posts[0].AdminKey)
	}
	want := map[string]any{"name": "Station", "fiat_currency": "EUR", "exchange_rate_provider": "coinbase", "fee": "0.00"}
	assertBody(t, posts[0].Body, want)

	records := fx.store.SortedView()
	if len(records) != 1 {
		t.Fatalf("store has %d records, want 1", len(records))
	}
	f := records[0].Fields()
	if f.WalletID != "w1" || f.APIKeySecret == nil || f.Name != "Station" {
		t.Fatalf("created record = %+v", f)
	}
}

// refreshingMutator lets a poll refresh land between the server create and
// the local merge.
type refreshingMutator struct {
	*lnbits.Client
	store *state.Store
}

func (m refreshingMutator) CreateAtmBitBit(ctx context.Context, adminKey string, input lnbits.AtmBitBitInput) (lnbits.AtmBitBit, error) {
	item, err := m.Client.CreateAtmBitBit(ctx, adminKey, input)
	if err != nil {
		return item, err
	}
	if err := m.store.Refresh(ctx); err != nil {
		return item, err
	}
	return item, nil
}

func TestFormCreateRacingRefreshSucceeds(t *testing.T) {
	fx := newFixture(t)
	form := panel.NewForm(fx.store, refreshingMutator{Client: fx.client, store: fx.store})

	form.OpenForCreate()
	form.Set(panel.FieldName, "Station")
	form.Set(panel.FieldWallet, "w1")

	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if form.Open() || form.Err() != nil {
		t.Fatalf("form open=%v err=%v after a server-confirmed create", form.Open(), form.Err())
	}
	if posts := fx.srv.CallsTo(http.MethodPost); len(posts) != 1 {
		t.Fatalf("POST calls = %d, want 1", len(posts))
	}
	records := fx.store.SortedView()
	if len(records) != 1 || records[0].Fields().Name != "Station" {
		t.Fatalf("store records = %d, want the created terminal once", len(records))
	}
}

func TestFormEditSubmitsSnapshotFields(t *testing.T) {
	fx := newFixture(t, lobby)
	form := panel.NewForm(fx.store, fx.client)

	if err := form.OpenForEdit("r1"); err != nil {
		t.Fatalf("OpenForEdit: %v", err)
	}
	if got := form.Draft().WalletSelector; got != "w2" {
		t.Fatalf("WalletSelector = %q, want w2", got)
	}
	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	puts := fx.srv.CallsTo(http.MethodPut)
	if len(puts) != 1 {
		t.Fatalf("PUT calls = %d, want 1", len(puts))
	}
	if puts[0].Path != "/atmbitbit/api/v1/atmbitbit/r1" || puts[0].AdminKey != "key-2" {
		t.Fatalf("PUT = %s with %q", puts[0].Path, puts[0].AdminKey)
	}
	want := map[string]any{"name": "Lobby", "fiat_currency": "CZK", "exchange_rate_provider": "coinmate", "fee": "1.25"}
	assertBody(t, puts[0].Body, want)
	if fx.store.Len() != 1 {
		t.Fatalf("store has %d records, want 1", fx.store.Len())
	}
}

func TestFormEditDoesNotTouchLiveRecord(t *testing.T) {
	fx := newFixture(t, lobby)
	form := panel.NewForm(fx.store, fx.client)
	if err := form.OpenForEdit("r1"); err != nil {
		t.Fatalf("OpenForEdit: %v", err)
	}
	form.Set(panel.FieldName, "Renamed")

	rec, _ := fx.store.Get("r1")
	if rec.Fields().Name != "Lobby" {
		t.Fatalf("live name = %q while editing, want Lobby", rec.Fields().Name)
	}
	form.Close()
	if form.Open() || form.Draft() != panel.DefaultDraft {
		t.Fatalf("Close() did not reset the form")
	}
}

func TestFormWithoutWalletSendsNothing(t *testing.T) {
	fx := newFixture(t)
	form := panel.NewForm(fx.store, fx.client)
	form.OpenForCreate()

	err := form.Submit(context.Background())
	if !errors.Is(err, state.ErrMissingWallet) {
		t.Fatalf("Submit error = %v, want missing wallet", err)
	}
	if calls := fx.srv.Calls(); len(calls) != 0 {
		t.Fatalf("transport calls = %d, want 0", len(calls))
	}
	if !form.Open() {
		t.Fatalf("form closed after missing wallet")
	}
	if !errors.Is(form.Err(), state.ErrMissingWallet) {
		t.Fatalf("Err() = %v, want missing wallet", form.Err())
	}

	form.Set(panel.FieldWallet, "nope")
	if _, err := form.Prepare(); !errors.Is(err, state.ErrMissingWallet) {
		t.Fatalf("Prepare with unknown wallet = %v, want missing wallet", err)
	}
}

func TestFormServerErrorKeepsDraft(t *testing.T) {
	fx := newFixture(t, lobby)
	fx.srv.Fail(http.MethodPut, http.StatusBadRequest, "Invalid fee.")
	form := panel.NewForm(fx.store, fx.client)
	_ = form.OpenForEdit("r1")
	form.Set(panel.FieldFee, "abc")

	err := form.Submit(context.Background())
	if !errors.Is(err, state.ErrMutation) {
		t.Fatalf("Submit error = %v, want mutation", err)
	}
	if !lnbits.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("Submit error = %v, want status 400 in chain", err)
	}
	if !form.Open() || form.Draft().Fee != "abc" {
		t.Fatalf("draft lost after failure: open=%v draft=%+v", form.Open(), form.Draft())
	}
	rec, _ := fx.store.Get("r1")
	if rec.Fields().Fee != "1.25" {
		t.Fatalf("store fee = %q, want 1.25", rec.Fields().Fee)
	}
}

func TestFormOpenForEditUnknown(t *testing.T) {
	fx := newFixture(t)
	form := panel.NewForm(fx.store, fx.client)
	if err := form.OpenForEdit("ghost"); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("OpenForEdit error = %v, want not found", err)
	}
	if form.Open() {
		t.Fatalf("form opened for unknown record")
	}
}

func TestSubmissionPhases(t *testing.T) {
	fx := newFixture(t)
	form := panel.NewForm(fx.store, fx.client)
	form.OpenForCreate()
	form.Set(panel.FieldWallet, "w2")

	sub, err := form.Prepare()
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if sub.Op() != "create" || sub.Wallet.ID != "w2" {
		t.Fatalf("submission = %s via %s", sub.Op(), sub.Wallet.ID)
	}
	if len(fx.srv.Calls()) != 0 {
		t.Fatalf("Prepare sent a request")
	}
	fields, err := sub.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !form.Open() {
		t.Fatalf("Run closed the form; only Finish may")
	}
	form.Finish(nil)
	if form.Open() {
		t.Fatalf("Finish(nil) left the form open")
	}
	if _, ok := fx.store.Get(fields.ID); !ok {
		t.Fatalf("created record %q not in store", fields.ID)
	}
}

func TestDeleteDeclinedIsNoop(t *testing.T) {
	fx := newFixture(t, lobby)
	d := panel.NewDeleter(fx.store, fx.client)

	var asked string
	err := d.RequestDelete(context.Background(), "r1", func(prompt string) bool {
		asked = prompt
		return false
	})
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if asked != `Are you sure you want to delete "Lobby"?` {
		t.Fatalf("prompt = %q", asked)
	}
	if fx.store.Len() != 1 {
		t.Fatalf("store has %d records, want 1", fx.store.Len())
	}
	if n := len(fx.srv.CallsTo(http.MethodDelete)); n != 0 {
		t.Fatalf("DELETE calls = %d, want 0", n)
	}
}

func TestDeleteConfirmed(t *testing.T) {
	fx := newFixture(t, lobby)
	d := panel.NewDeleter(fx.store, fx.client)

	err := d.RequestDelete(context.Background(), "r1", func(string) bool { return true })
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if fx.store.Len() != 0 {
		t.Fatalf("store has %d records, want 0", fx.store.Len())
	}
	dels := fx.srv.CallsTo(http.MethodDelete)
	if len(dels) != 1 || dels[0].AdminKey != "key-2" {
		t.Fatalf("DELETE calls = %+v, want one with key-2", dels)
	}
	if len(fx.srv.Items()) != 0 {
		t.Fatalf("server still holds %d items", len(fx.srv.Items()))
	}
}

func TestDeleteFailureKeepsRecord(t *testing.T) {
	fx := newFixture(t, lobby)
	fx.srv.Fail(http.MethodDelete, http.StatusInternalServerError, "boom")
	d := panel.NewDeleter(fx.store, fx.client)

	err := d.Delete(context.Background(), "r1")
	if !errors.Is(err, state.ErrMutation) {
		t.Fatalf("Delete error = %v, want mutation", err)
	}
	if fx.store.Len() != 1 {
		t.Fatalf("record dropped after failed delete")
	}
	if _, err := d.Prompt("ghost"); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("Prompt(ghost) = %v, want not found", err)
	}
}

func TestDeleteForeignWallet(t *testing.T) {
	foreign := lobby
	foreign.ID, foreign.Wallet = "r7", "w9"
	fx := newFixture(t)
	if err := fx.store.ApplyCreated(state.FieldsFromAPI(foreign)); err != nil {
		t.Fatalf("ApplyCreated: %v", err)
	}
	d := panel.NewDeleter(fx.store, fx.client)
	if err := d.Delete(context.Background(), "r7"); !errors.Is(err, state.ErrMissingWallet) {
		t.Fatalf("Delete error = %v, want missing wallet", err)
	}
	if len(fx.srv.Calls()) != 0 {
		t.Fatalf("transport called for a wallet without key")
	}
}

func TestRenderConfig(t *testing.T) {
	fx := newFixture(t, lobby)
	e := panel.NewExporter(fx.store, "https://pay.example.com/atmbitbit/u", nil)

	got, err := e.Render("r1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := strings.Join([]string{
		"apiKey.id=ZZZ",
		"apiKey.key=c2VjcmV0",
		"apiKey.encoding=base64",
		"fiatCurrency=CZK",
		"callbackUrl=https://pay.example.com/atmbitbit/u",
		"shorten=true",
	}, "\n")
	if got != want {
		t.Fatalf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderConfigOmitsAbsentFields(t *testing.T) {
	bare := lobby
	bare.APIKeyEncoding = nil
	fx := newFixture(t, bare)
	e := panel.NewExporter(fx.store, "cb", nil)

	got, err := e.Render("r1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("Render() has %d lines, want 5:\n%s", len(lines), got)
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "apiKey.encoding") {
			t.Fatalf("Render() contains %q", line)
		}
	}
	if _, err := e.Render("ghost"); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("Render(ghost) = %v, want not found", err)
	}
}

func TestRenderConfigOmitsEmptyScalars(t *testing.T) {
	bare := lobby
	bare.APIKeyID = ""
	bare.FiatCurrency = ""
	fx := newFixture(t, bare)
	e := panel.NewExporter(fx.store, "cb", nil)

	got, err := e.Render("r1")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := strings.Join([]string{
		"apiKey.key=c2VjcmV0",
		"apiKey.encoding=base64",
		"callbackUrl=cb",
		"shorten=true",
	}, "\n")
	if got != want {
		t.Fatalf("Render() =\n%s\nwant\n%s", got, want)
	}
}

type refusingSaver struct{}

func (refusingSaver) Save(string, string, []byte) (string, error) {
	return "", errors.New("permission denied")
}

func TestExport(t *testing.T) {
	fx := newFixture(t, lobby)
	dir := filepath.Join(t.TempDir(), "exports")
	e := panel.NewExporter(fx.store, "cb", panel.DirSaver{Dir: dir})

	path, err := e.Export("r1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(path) != panel.ExportFileName {
		t.Fatalf("Export path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want, _ := e.Render("r1")
	if string(data) != want {
		t.Fatalf("file content = %q, want %q", data, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat export: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("file mode = %o, want 600", perm)
	}
}

func TestExportDenied(t *testing.T) {
	fx := newFixture(t, lobby)
	before := fx.store.SortedView()
	e := panel.NewExporter(fx.store, "cb", refusingSaver{})

	if _, err := e.Export("r1"); !errors.Is(err, state.ErrExportDenied) {
		t.Fatalf("Export error = %v, want export denied", err)
	}
	after := fx.store.SortedView()
	if len(after) != len(before) || !after[0].Fields().Equal(before[0].Fields()) {
		t.Fatalf("store changed by a denied export")
	}
}

func TestWriterSaver(t *testing.T) {
	var buf bytes.Buffer
	loc, err := panel.WriterSaver{W: &buf}.Save(panel.ExportFileName, panel.ExportMIMEType, []byte("a=b"))
	if err != nil || loc != "-" {
		t.Fatalf("Save() = %q, %v", loc, err)
	}
	if buf.String() != "a=b\n" {
		t.Fatalf("written = %q", buf.String())
	}
}

func assertBody(t *testing.T, got, want map[string]any) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("body = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("body[%q] = %v, want %v", k, got[k], v)
		}
	}
}
