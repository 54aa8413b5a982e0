package docconv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// transferChunkSize bounds per-copy memory. Peak usage is independent
// of payload size beyond this window.
const transferChunkSize = 32 * 1024

// Transfer copies src to dst in bounded chunks, checking the context
// between chunks so an expired deadline or cancelled caller aborts the
// copy promptly. Read failures wrap ErrSourceRead, write failures wrap
// ErrDestWrite, cancellation surfaces the context's cause.
func Transfer(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, transferChunkSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, context.Cause(ctx)
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, fmt.Errorf("%w: %v", ErrDestWrite, werr)
			}
			if wn < n {
				return written, fmt.Errorf("%w: %v", ErrDestWrite, io.ErrShortWrite)
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return written, nil
			}
			return written, fmt.Errorf("%w: %v", ErrSourceRead, rerr)
		}
	}
}

// StageToFile streams src into a newly created file at path.
// The file is opened exclusively: staging over an existing file is a
// programming error, not a supported overwrite. On cancellation the
// descriptor is closed and the partial file is left for the workspace
// to sweep.
func StageToFile(ctx context.Context, path string, src io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDestWrite, err)
	}

	written, err := Transfer(ctx, f, src)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: %v", ErrDestWrite, cerr)
	}
	return written, err
}
