package chat

type fanoutJob struct {
	conns   []*Client
	payload []byte
}

// Fanout spreads broadcast delivery over a small worker pool so a large
// session count doesn't serialize behind one goroutine. Two broadcasts can
// land on different workers, so cross-broadcast arrival order at any one
// client is not guaranteed; only in-session processing order is.
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range f.jobs {
				for _, c := range job.conns {
					// per-client queue handles slow consumers
					c.enqueue(job.payload)
				}
			}
		}()
	}
	return f
}

func (f *Fanout) Broadcast(conns []*Client, payload []byte) {
	if len(conns) == 0 || len(payload) == 0 {
		return
	}
	f.jobs <- fanoutJob{conns: conns, payload: payload}
}
