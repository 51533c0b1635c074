package ble

import (
	"context"
	"fmt"
	"log/slog"

	"tinygo.org/x/bluetooth"

	"github.com/sgoadhouse/ferm2mqtt/internal/utils"
)

// Advertisement is a single received broadcast carrying manufacturer data.
// Data is the manufacturer payload with the 2-byte company ID already split
// off into CompanyID (little-endian on air, so Apple 0x4C00 arrives as 0x004C
// and RAPT's "RA" prefix as 0x4152).
type Advertisement struct {
	Address   string
	RSSI      int
	CompanyID uint16
	Data      []byte
}

type Options struct {
	Adapter string // "hci0" by default
	// CompanyIDs limits delivery to these manufacturer IDs. Empty means all.
	CompanyIDs []uint16
}

// Listener wraps BlueZ scanning with context cancellation.
type Listener struct {
	adapter *bluetooth.Adapter
	opts    Options
}

func NewListener(opts Options) *Listener {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}

	return &Listener{
		adapter: bluetooth.NewAdapter(opts.Adapter),
		opts:    opts,
	}
}

// Run scans until ctx is canceled, invoking onAdvertisement once per
// manufacturer-data element of interest. The callback runs on the scan
// goroutine and must not block.
func (l *Listener) Run(ctx context.Context, onAdvertisement func(Advertisement)) error {
	slog.Info("ble: enabling adapter", "adapter", l.opts.Adapter)
	if err := l.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable (%s): %w", l.opts.Adapter, err)
	}
	slog.Info("ble: adapter enabled", "adapter", l.opts.Adapter)

	go func() {
		<-ctx.Done()
		_ = l.adapter.StopScan()
	}()

	slog.Info("ble: scanning started", "filter_companies", companyFilterString(l.opts.CompanyIDs))

	// adapter.Scan blocks until StopScan() or error.
	err := l.adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
		for _, md := range r.ManufacturerData() {
			if !l.companyWanted(md.CompanyID) {
				continue
			}
			if len(md.Data) == 0 {
				continue
			}

			if onAdvertisement != nil {
				onAdvertisement(Advertisement{
					Address:   r.Address.String(),
					RSSI:      int(r.RSSI),
					CompanyID: md.CompanyID,
					Data:      append([]byte(nil), md.Data...),
				})
			}
		}
	})

	// If ctx canceled, treat as clean shutdown.
	if ctx.Err() != nil {
		slog.Info("ble: scanning stopped (context canceled)")
		return nil
	}

	if err != nil {
		return fmt.Errorf("ble scan: %w", err)
	}

	slog.Info("ble: scanning stopped")
	return nil
}

func (l *Listener) companyWanted(id uint16) bool {
	if len(l.opts.CompanyIDs) == 0 {
		return true
	}
	for _, want := range l.opts.CompanyIDs {
		if id == want {
			return true
		}
	}
	return false
}

func companyFilterString(ids []uint16) string {
	if len(ids) == 0 {
		return "all"
	}
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += " "
		}
		out += "0x" + utils.Hex4(id)
	}
	return out
}
