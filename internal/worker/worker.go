package worker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/config"
	"github.com/simplelearn-uz/convertbot/internal/convert"
	"github.com/simplelearn-uz/convertbot/internal/formats"
	"github.com/simplelearn-uz/convertbot/internal/i18n"
	"github.com/simplelearn-uz/convertbot/internal/messages"
	"github.com/simplelearn-uz/convertbot/internal/metrics"
	"github.com/simplelearn-uz/convertbot/internal/quota"
	"github.com/simplelearn-uz/convertbot/internal/session"
	"github.com/simplelearn-uz/convertbot/types"
)

// Downloader pulls a Telegram file onto local disk.
type Downloader interface {
	Download(ctx context.Context, fileID, destPath string) error
}

// Uploader pushes results and status updates back to the chat.
type Uploader interface {
	SendDocument(ctx context.Context, chatID int64, path, caption string) error
	SendText(ctx context.Context, chatID int64, text string) error
}

// Job is one queued conversion.
type Job struct {
	UserID    int64
	ChatID    int64
	Lang      i18n.Lang
	File      types.PendingFile
	TargetExt string
	Limits    config.TierLimits
}

// Pool runs conversions on a fixed set of workers so heavy ffmpeg and
// libreoffice runs cannot pile up unbounded.
type Pool struct {
	dispatcher *convert.Dispatcher
	quota      *quota.Engine
	sessions   *session.Manager
	log        types.ConversionLog
	downloader Downloader
	uploader   Uploader

	workers int
	queue   chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewPool(dispatcher *convert.Dispatcher, quotaEngine *quota.Engine, sessions *session.Manager, log types.ConversionLog, downloader Downloader, uploader Uploader, workers int) *Pool {
	if workers <= 0 {
		workers = 3
	}
	queueSize := workers * 2
	if queueSize < 10 {
		queueSize = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		dispatcher: dispatcher,
		quota:      quotaEngine,
		sessions:   sessions,
		log:        log,
		downloader: downloader,
		uploader:   uploader,
		workers:    workers,
		queue:      make(chan Job, queueSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	logrus.WithField("workers", p.workers).Info("conversion pool started")
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	logrus.Info("conversion pool stopped")
}

// Enqueue queues a job, reporting false when the queue is full.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		return true
	default:
		return false
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.queue:
			p.process(job)
		}
	}
}

func (p *Pool) process(job Job) {
	defer p.finish(job)

	family := formats.FamilyOf(job.File.Extension)
	start := time.Now()

	inputPath := filepath.Join(p.dispatcher.TempDir(), uuid.NewString()+"_"+filepath.Base(job.File.FileName))
	defer os.Remove(inputPath)

	if err := p.downloader.Download(p.ctx, job.File.FileID, inputPath); err != nil {
		logrus.WithError(err).WithField("file_id", job.File.FileID).Error("download failed")
		p.fail(job, family, start, err)
		return
	}

	outputPath, err := p.dispatcher.Convert(p.ctx, inputPath, job.TargetExt)
	if err != nil {
		p.fail(job, family, start, err)
		return
	}
	defer os.Remove(outputPath)

	elapsed := time.Since(start)
	metrics.ObserveConversion(string(family), string(types.ConversionSuccess), elapsed)

	if err := p.quota.RecordSuccess(p.ctx, job.UserID, job.File.FileSize); err != nil {
		logrus.WithError(err).WithField("user_id", job.UserID).Error("record usage")
	}
	p.record(job, types.ConversionSuccess, elapsed, "")

	remaining, err := p.quota.Remaining(p.ctx, job.UserID, job.Limits)
	if err != nil {
		remaining = quota.Unlimited
	}
	caption := messages.ConversionDone(job.Lang, remaining)
	if err := p.uploader.SendDocument(p.ctx, job.ChatID, outputPath, caption); err != nil {
		logrus.WithError(err).WithField("chat_id", job.ChatID).Error("send result")
		p.notifyError(job)
	}
}

func (p *Pool) finish(job Job) {
	if err := p.sessions.FinishConversion(p.ctx, job.UserID); err != nil {
		logrus.WithError(err).WithField("user_id", job.UserID).Warn("reset session after conversion")
	}
}

func (p *Pool) fail(job Job, family formats.Family, start time.Time, cause error) {
	elapsed := time.Since(start)
	metrics.ObserveConversion(string(family), string(types.ConversionFailed), elapsed)
	p.record(job, types.ConversionFailed, elapsed, cause.Error())

	logrus.WithError(cause).WithFields(logrus.Fields{
		"user_id": job.UserID,
		"source":  job.File.Extension,
		"target":  job.TargetExt,
	}).Warn("conversion failed")

	if errors.Is(cause, types.ErrUnsupportedFormat) {
		_ = p.uploader.SendText(p.ctx, job.ChatID, messages.ErrorUnsupportedFormat(job.Lang, job.File.Extension))
		return
	}
	p.notifyError(job)
}

func (p *Pool) notifyError(job Job) {
	if err := p.uploader.SendText(p.ctx, job.ChatID, messages.ErrorConversionFailed(job.Lang, job.File.FileName)); err != nil {
		logrus.WithError(err).WithField("chat_id", job.ChatID).Error("send failure notice")
	}
}

func (p *Pool) record(job Job, status types.ConversionStatus, elapsed time.Duration, errMsg string) {
	rec := types.ConversionRecord{
		UserID:           job.UserID,
		OriginalFilename: job.File.FileName,
		OriginalFormat:   job.File.Extension,
		TargetFormat:     job.TargetExt,
		FileSizeBytes:    job.File.FileSize,
		Status:           status,
		ErrorMessage:     errMsg,
		Duration:         elapsed,
		CreatedAt:        time.Now(),
	}
	if err := p.log.InsertRecord(p.ctx, rec); err != nil {
		logrus.WithError(err).Error("insert conversion record")
	}
}
