package ton

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	tonapi "github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"
)

// Sender submits transfers from one wallet and waits for inclusion.
type Sender interface {
	Transfer(ctx context.Context, to *address.Address, amount tlb.Coins, bounce bool, comment string) (string, error)
	Close()
}

// Dialer connects w to the lite-servers listed at configURL.
type Dialer func(ctx context.Context, configURL string, w *wallet.Wallet) (Sender, error)

// DialLiteServers connects a liteclient pool from the global config and
// rebinds w to it.
func DialLiteServers(ctx context.Context, configURL string, w *wallet.Wallet) (Sender, error) {
	pool := liteclient.NewConnectionPool()
	if err := pool.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
		return nil, fmt.Errorf("connecting lite-servers: %w", err)
	}
	api := tonapi.NewAPIClient(pool).WithRetry()

	bound, err := wallet.FromPrivateKey(api, w.PrivateKey(), wallet.V4R2)
	if err != nil {
		pool.Stop()
		return nil, err
	}
	return &poolSender{pool: pool, wallet: bound}, nil
}

type poolSender struct {
	pool   *liteclient.ConnectionPool
	wallet *wallet.Wallet
}

func (s *poolSender) Transfer(ctx context.Context, to *address.Address, amount tlb.Coins, bounce bool, comment string) (string, error) {
	msg, err := s.wallet.BuildTransfer(to, amount, bounce, comment)
	if err != nil {
		return "", fmt.Errorf("building transfer: %w", err)
	}
	tx, _, err := s.wallet.SendWaitTransaction(ctx, msg)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(tx.Hash), nil
}

func (s *poolSender) Close() {
	s.pool.Stop()
}
