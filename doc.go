// Package docconv orchestrates document format conversion around an
// external converter subprocess.
//
// The conversion itself belongs to the external program (LibreOffice
// in headless batch mode by default); this package owns the request
// lifecycle around it: admission control, input staging without
// unbounded memory, subprocess supervision under a hard deadline with
// signal escalation, output dispatch as a stream or forward upload,
// and exactly-once temporary-resource cleanup on every exit path.
//
// # Pipeline
//
// A request flows through fixed stages:
//
//  1. Validation: format tags plus exactly one input mode (inline
//     upload or remote URL) and one output mode (stream or forward
//     upload). Invalid requests never create a workspace.
//  2. Admission: a FIFO Limiter slot bounds concurrent conversions.
//  3. Staging: the input bytes are copied into a per-request
//     Workspace via bounded, cancellable Transfer.
//  4. Conversion: the routed Engine runs under a deadline scope
//     linked to the caller's cancellation; the subprocess invoker
//     escalates termination (graceful signal, grace window, kill)
//     when the scope ends. The slot is released as soon as the
//     subprocess exits, before any output dispatch.
//  5. Dispatch: the artifact streams to the caller or is forwarded
//     via outbound PUT, buffered or straight from disk depending on
//     staged input size.
//  6. Cleanup: the Workspace is destroyed exactly once; when the
//     artifact streams from disk, ownership moves to the response
//     body and closing it is the cleanup trigger.
//
// # Usage
//
//	pipe := docconv.NewPipeline(docconv.PipelineConfig{
//	    Engines: &docconv.Router{
//	        Subprocess: docconv.NewInvoker("soffice", log),
//	    },
//	    Limiter:   docconv.NewLimiter(4),
//	    Telemetry: docconv.NewMemorySink(),
//	    Logger:    log,
//	})
//
//	resp, err := pipe.Process(ctx, &docconv.Request{
//	    From:   "docx",
//	    To:     "pdf",
//	    Upload: file,
//	    Stream: true,
//	})
//
// Failures classify into sentinel kinds (ErrValidation, ErrStaging,
// ErrConversion, ErrTimeout, ErrUploadForward); StatusFor maps them to
// HTTP statuses for transport shells.
//
// # Converter contract
//
// The external converter is invoked headless with a target format, an
// input file path, and an output directory, and is expected to write
// <stem>.<target> there. Its exit code and stderr are diagnostic only:
// the sole failure signal is the absence of a readable artifact.
package docconv
