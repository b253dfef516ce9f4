package chunkflow

import "context"

// ProcessStream executes fn over chunks strictly in index order, emitting
// one Result per chunk on the returned channel as soon as it is produced.
//
// The stream is lazy: the channel is unbuffered, so chunk i+1 is not
// processed until the consumer has received result i. Only one in-flight
// result exists at any time, trading throughput for bounded memory and
// live progress visibility.
//
// Failures are isolated per element: a chunk whose processor returns an
// error yields a Result with Err set, and the stream continues with the
// next chunk. Each chunk gets exactly one attempt.
//
// The channel is closed after the last chunk, or early if the context is
// cancelled. The stream is not restartable; a fresh call re-processes from
// chunk 0.
func (p *Processor[R]) ProcessStream(ctx context.Context, chunks []Chunk, fn ProcessFunc[R]) <-chan Result[R] {
	out := make(chan Result[R])

	go func() {
		defer close(out)
		for i, chunk := range chunks {
			if ctx.Err() != nil {
				return
			}

			value, err := p.runChunk(ctx, chunk, fn)
			res := Result[R]{Index: i, Err: err, Attempts: 1}
			if err == nil {
				res.Value = value
			}

			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
