package remote

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/muurk/rev4switch/internal/protocol"
)

// Transmitter hands an encoded command to something that can put it on air.
// The bridge client implements it; DryRun prints instead.
type Transmitter interface {
	Transmit(ctx context.Context, enc protocol.Encoding) error
}

// DryRun is a Transmitter that writes the pulse train to Out in pilight's
// raw format and never fails.
type DryRun struct {
	mu  sync.Mutex
	Out io.Writer
}

// NewDryRun returns a dry-run transmitter writing to w. A nil w discards.
func NewDryRun(w io.Writer) *DryRun {
	if w == nil {
		w = io.Discard
	}
	return &DryRun{Out: w}
}

// Transmit writes one line per encoding.
func (d *DryRun) Transmit(ctx context.Context, enc protocol.Encoding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := fmt.Fprintf(d.Out, "%s id=%d unit=%d state=%s: %s\n",
		protocol.ProtocolID, enc.Command.ID, enc.Command.Unit, enc.Command.State, enc.Pulses)
	return err
}
