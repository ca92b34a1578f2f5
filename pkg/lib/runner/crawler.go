package runner

import "time"

// startCrawler launches the crawler goroutine once per runner. It is a no-op
// after Close.
func (r *Runner) startCrawler() {
	r.crawlerOnce.Do(func() {
		r.crawlerStarted.Store(true)
		go r.crawl()
	})
}

// crawl periodically scans registered handles and records the termination
// time of runs that ended since the previous scan.
func (r *Runner) crawl() {
	defer close(r.crawlerDone)

	r.logger.Debug("crawler started", "interval", r.pollInterval.String())
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("crawler stopped")
			return
		case <-ticker.C:
			r.scan()
		}
	}
}

func (r *Runner) scan() {
	for _, h := range r.Handles() {
		h.checkTerminated()
	}
}
