package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/educert/internal/chain"
	"github.com/and161185/educert/internal/config"
	"github.com/and161185/educert/internal/errs"
	"github.com/and161185/educert/internal/model"
	"github.com/and161185/educert/internal/repository/file"
	grpcserver "github.com/and161185/educert/internal/server/grpc"
	"github.com/and161185/educert/internal/session"
	"github.com/and161185/educert/internal/wallet"
)

type fakeAPI struct {
	address  string
	minted   []model.CertificateMetadata
	campaign *model.Campaign
	owner    string
}

func (f *fakeAPI) Connect(context.Context) (string, error) {
	f.address = "andr1abc"
	return f.address, nil
}

func (f *fakeAPI) Disconnect(context.Context) error {
	f.address = ""
	return nil
}

func (f *fakeAPI) Status(context.Context) (*grpcserver.StatusResponse, error) {
	return &grpcserver.StatusResponse{Connected: f.address != "", Address: f.address, ChainID: "galileo-4"}, nil
}
func (f *fakeAPI) MintCertificate(_ context.Context, m model.CertificateMetadata) (*grpcserver.BroadcastResponse, error) {
	f.minted = append(f.minted, m)
	return &grpcserver.BroadcastResponse{Result: &model.BroadcastResult{TxHash: "H"}}, nil
}
func (f *fakeAPI) TransferCertificate(context.Context, string, string) (*grpcserver.BroadcastResponse, error) {
	return &grpcserver.BroadcastResponse{}, nil
}
func (f *fakeAPI) QueryCertificates(_ context.Context, owner string) ([]model.Certificate, error) {
	f.owner = owner
	return []model.Certificate{}, nil
}
func (f *fakeAPI) QueryCertificate(_ context.Context, id string) (*model.Certificate, error) {
	return &model.Certificate{TokenID: id}, nil
}
func (f *fakeAPI) CreateCampaign(_ context.Context, c model.Campaign) (*grpcserver.BroadcastResponse, error) {
	f.campaign = &c
	return &grpcserver.BroadcastResponse{}, nil
}
func (f *fakeAPI) QueryCampaigns(context.Context) ([]model.Sale, error) { return []model.Sale{}, nil }

func fixedNow(t *testing.T) {
	t.Helper()
	old := now
	now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = old })
}

func TestCmdIssue_BuildsMetadata(t *testing.T) {
	fixedNow(t)
	ctx := context.Background()
	a := &fakeAPI{}
	var out bytes.Buffer

	err := cmdIssue(ctx, a, []string{
		"-student", "andr1student", "-title", "Intro to Rust", "-desc", "Completed",
		"-course", "RUST-101", "-grade", "A",
	}, &out)
	require.NoError(t, err)
	require.Len(t, a.minted, 1)
	require.Equal(t, []model.Attribute{
		{TraitType: "Issue Date", Value: "2024-03-01"},
		{TraitType: "Course ID", Value: "RUST-101"},
		{TraitType: "Grade", Value: "A"},
		{TraitType: "Student", Value: "andr1student"},
	}, a.minted[0].Attributes)

	err = cmdIssue(ctx, a, []string{"-student", "andr1student"}, &out)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	require.Contains(t, err.Error(), "title is required")
	require.Len(t, a.minted, 1)

	err = cmdIssue(ctx, a, []string{"-nope"}, &out)
	require.ErrorIs(t, err, errUsage)
}

func TestCmdCampaign(t *testing.T) {
	fixedNow(t)
	ctx := context.Background()
	a := &fakeAPI{}
	var out bytes.Buffer

	err := cmdCampaign(ctx, a, []string{"-price", "10", "-min", "5", "-max", "2", "-end", "2024-04-01T00:00:00Z"}, &out)
	require.NoError(t, err)
	require.Equal(t, model.Campaign{
		StartTime: now().Unix(), EndTime: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC).Unix(),
		Price: "10", MinTokensSold: "5", MaxAmountPerWallet: "2",
	}, *a.campaign)

	err = cmdCampaign(ctx, a, []string{"-price", "10", "-min", "5", "-max", "2", "-end", "2020-01-01T00:00:00Z"}, &out)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	require.Contains(t, err.Error(), "end date must be in the future")

	err = cmdCampaign(ctx, a, []string{"-price", "10", "-min", "5", "-max", "2", "-end", "someday"}, &out)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestCmdCerts_DefaultsToConnectedAddress(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := &fakeAPI{}
	var out bytes.Buffer

	require.NoError(t, cmdConnect(ctx, a, nil, &out))
	require.Equal(t, "connected andr1abc\n", out.String())

	require.NoError(t, cmdCerts(ctx, a, nil, &out))
	require.Equal(t, "andr1abc", a.owner)
	require.NoError(t, cmdCerts(ctx, a, []string{"-owner", "andr1xyz"}, &out))
	require.Equal(t, "andr1xyz", a.owner)

	require.ErrorIs(t, cmdCert(ctx, a, nil, &out), errUsage)
}

type recordingClient struct {
	contracts []string
	msgs      []json.RawMessage
}

func (c *recordingClient) Execute(_ context.Context, _ string, contract string, msg any, _ chain.Fee, _ string, _ []chain.Coin) (*model.BroadcastResult, error) {
	raw, _ := json.Marshal(msg)
	c.contracts = append(c.contracts, contract)
	c.msgs = append(c.msgs, raw)
	return &model.BroadcastResult{TxHash: "TX1"}, nil
}

func (c *recordingClient) QueryContractSmart(context.Context, string, any, any) error {
	return errors.New("unused")
}

func TestLocalAPI_ConnectIssueRestore(t *testing.T) {
	fixedNow(t)
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()

	_, err := wallet.GenerateKey(dir, "default", cfg.Bech32.AccAddr, []byte("pw"))
	require.NoError(t, err)
	store := file.NewKVRepo(filepath.Join(dir, "session.json"))
	rc := &recordingClient{}
	dialer := session.WithDialer(func(context.Context, config.Chain, wallet.OfflineSigner) (session.Client, error) {
		return rc, nil
	})

	ext := extension(dir, "default", cfg.Bech32.AccAddr, passphraseSource("pw"))
	require.NotNil(t, ext)
	l := newLocalAPI(ext, cfg, store, zap.NewNop(), dialer)

	var out bytes.Buffer
	require.ErrorIs(t, cmdIssue(ctx, l, []string{"-student", "s", "-title", "t", "-desc", "d", "-course", "c", "-grade", "g"}, &out),
		errs.ErrNotConnected)

	require.NoError(t, cmdConnect(ctx, l, nil, &out))
	require.NoError(t, cmdIssue(ctx, l, []string{"-student", "s", "-title", "t", "-desc", "d", "-course", "c", "-grade", "g"}, &out))
	require.Equal(t, []string{cfg.Contracts.Tokens.Address}, rc.contracts)
	require.Contains(t, out.String(), cfg.TxURL("TX1"))

	// a new process restores the persisted session
	l2 := newLocalAPI(extension(dir, "default", cfg.Bech32.AccAddr, passphraseSource("pw")), cfg, store, zap.NewNop(), dialer)
	s, ok := l2.mgr.Restore(ctx)
	require.True(t, ok)
	st, err := l2.Status(ctx)
	require.NoError(t, err)
	require.True(t, st.Connected)
	require.Equal(t, s.Address, st.Address)

	// no passphrase at all leaves it for the next run
	t.Setenv(passphraseEnv, "")
	l4 := newLocalAPI(extension(dir, "default", cfg.Bech32.AccAddr, passphraseSource("")), cfg, store, zap.NewNop(), dialer)
	_, ok = l4.mgr.Restore(ctx)
	require.False(t, ok)
	kept, err := store.Get(ctx, session.AddressKey)
	require.NoError(t, err)
	require.Equal(t, s.Address, kept)

	// a wrong passphrase forgets it
	l3 := newLocalAPI(extension(dir, "default", cfg.Bech32.AccAddr, passphraseSource("bad")), cfg, store, zap.NewNop(), dialer)
	_, ok = l3.mgr.Restore(ctx)
	require.False(t, ok)
	_, err = store.Get(ctx, session.AddressKey)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
