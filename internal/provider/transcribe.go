package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/google/uuid"
	"github.com/lingualoop/learning-api/internal/domain"
	"github.com/lingualoop/learning-api/internal/logging"
	"go.uber.org/zap"
)

// Transcription timing defaults.
const (
	DefaultTranscribeTimeout = 30 * time.Second
	DefaultPollInterval      = time.Second

	cleanupTimeout = 5 * time.Second
)

// ObjectAPI is the subset of *s3.Client used for temporary media.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// TranscriptionAPI is the subset of *transcribe.Client used by Transcribe.
type TranscriptionAPI interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
	DeleteTranscriptionJob(ctx context.Context, params *transcribe.DeleteTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.DeleteTranscriptionJobOutput, error)
}

// Transcribe runs batch transcription jobs over audio staged in S3. The
// audio object, the transcript object and the job are deleted on every
// path, including timeout and cancellation.
type Transcribe struct {
	jobs      TranscriptionAPI
	objects   ObjectAPI
	bucket    string
	keyPrefix string
	timeout   time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

// TranscribeOptions configures a Transcribe.
type TranscribeOptions struct {
	Bucket       string
	KeyPrefix    string // e.g. "audio/" or "pronunciation/"
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       *zap.Logger
}

// NewTranscribe creates a transcriber.
func NewTranscribe(jobs TranscriptionAPI, objects ObjectAPI, opts TranscribeOptions) *Transcribe {
	t := &Transcribe{
		jobs:      jobs,
		objects:   objects,
		bucket:    opts.Bucket,
		keyPrefix: opts.KeyPrefix,
		timeout:   opts.Timeout,
		interval:  opts.PollInterval,
		logger:    opts.Logger,
	}
	if t.keyPrefix == "" {
		t.keyPrefix = "audio/"
	}
	if t.timeout <= 0 {
		t.timeout = DefaultTranscribeTimeout
	}
	if t.interval <= 0 {
		t.interval = DefaultPollInterval
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	return t
}

// Transcribe uploads audio, runs a job in locale and waits for it.
func (t *Transcribe) Transcribe(ctx context.Context, audio []byte, locale string) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, fmt.Errorf("%w: audio is empty", domain.ErrInvalidInput)
	}

	id := uuid.NewString()
	format, contentType := mediaFormat(audio)
	job := transcriptionJob{
		name:        "transcribe-" + id,
		locale:      locale,
		format:      format,
		contentType: contentType,
		audioKey:    t.keyPrefix + id + "." + string(format),
	}
	job.transcriptKey = "transcripts/" + job.name + ".json"
	logger := t.logger.With(zap.String(logging.FieldJobName, job.name), zap.String(logging.FieldLocale, locale))

	// Every provider call shares the job ceiling, not just the polling.
	jobCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	tr, err := t.run(jobCtx, logger, job, audio)
	if err != nil && ctx.Err() == nil && jobCtx.Err() != nil {
		return Transcript{}, fmt.Errorf("%w after %s", domain.ErrTranscriptionTimeout, t.timeout)
	}
	return tr, err
}

// transcriptionJob names the objects and job of one transcription.
type transcriptionJob struct {
	name          string
	locale        string
	format        types.MediaFormat
	contentType   string
	audioKey      string
	transcriptKey string
}

func (t *Transcribe) run(ctx context.Context, logger *zap.Logger, job transcriptionJob, audio []byte) (Transcript, error) {
	if _, err := t.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(job.audioKey),
		Body:        bytes.NewReader(audio),
		ContentType: aws.String(job.contentType),
	}); err != nil {
		return Transcript{}, failure("s3 put audio", err)
	}

	jobStarted := false
	defer func() {
		t.cleanup(ctx, logger, job.name, jobStarted, job.audioKey, job.transcriptKey)
	}()

	if _, err := t.jobs.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(job.name),
		Media:                &types.Media{MediaFileUri: aws.String(fmt.Sprintf("s3://%s/%s", t.bucket, job.audioKey))},
		MediaFormat:          job.format,
		LanguageCode:         types.LanguageCode(job.locale),
		OutputBucketName:     aws.String(t.bucket),
		OutputKey:            aws.String(job.transcriptKey),
	}); err != nil {
		return Transcript{}, failure("transcribe start job", err)
	}
	jobStarted = true

	return t.wait(ctx, job.name, job.transcriptKey)
}

// wait polls the job every interval until it settles or ctx ends.
func (t *Transcribe) wait(ctx context.Context, jobName, transcriptKey string) (Transcript, error) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		out, err := t.jobs.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return Transcript{}, failure("transcribe get job", err)
		}

		if job := out.TranscriptionJob; job != nil {
			switch job.TranscriptionJobStatus {
			case types.TranscriptionJobStatusCompleted:
				return t.readTranscript(ctx, transcriptKey)
			case types.TranscriptionJobStatusFailed:
				reason := aws.ToString(job.FailureReason)
				if reason == "" {
					reason = "unknown error"
				}
				return Transcript{}, fmt.Errorf("%w: transcription failed: %s", domain.ErrProviderFailure, reason)
			}
		}

		select {
		case <-ctx.Done():
			return Transcript{}, failure("transcribe wait", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (t *Transcribe) readTranscript(ctx context.Context, key string) (Transcript, error) {
	out, err := t.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Transcript{}, failure("s3 get transcript", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Transcript{}, failure("s3 read transcript", err)
	}
	tr, err := ParseTranscript(data)
	if err != nil {
		return Transcript{}, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}
	return tr, nil
}

// cleanup runs on a context detached from the request so a cancelled or
// timed out request still removes its temporary media.
func (t *Transcribe) cleanup(ctx context.Context, logger *zap.Logger, jobName string, jobStarted bool, keys ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if jobStarted {
		if _, err := t.jobs.DeleteTranscriptionJob(ctx, &transcribe.DeleteTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		}); err != nil {
			logger.Warn("delete transcription job failed", zap.Error(err))
		}
	}
	for _, key := range keys {
		if _, err := t.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(t.bucket),
			Key:    aws.String(key),
		}); err != nil {
			logger.Warn("delete temporary object failed", zap.String(logging.FieldObjectKey, key), zap.Error(err))
		}
	}
}

type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		Items []struct {
			Type         string `json:"type"`
			Alternatives []struct {
				Confidence string `json:"confidence"`
			} `json:"alternatives"`
		} `json:"items"`
	} `json:"results"`
}

// ParseTranscript decodes a Transcribe output document. Confidence is the
// mean over pronunciation items; punctuation items carry none.
func ParseTranscript(data []byte) (Transcript, error) {
	var doc transcriptDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}
	if len(doc.Results.Transcripts) == 0 {
		return Transcript{}, fmt.Errorf("decode transcript: no transcripts")
	}

	var sum float64
	var n int
	for _, item := range doc.Results.Items {
		if item.Type != "pronunciation" || len(item.Alternatives) == 0 {
			continue
		}
		c, err := strconv.ParseFloat(item.Alternatives[0].Confidence, 64)
		if err != nil {
			continue
		}
		sum += c
		n++
	}

	tr := Transcript{Text: strings.TrimSpace(doc.Results.Transcripts[0].Transcript)}
	if n > 0 {
		tr.Confidence = sum / float64(n)
	}
	return tr, nil
}

// mediaFormat sniffs the container of audio. Unknown data is sent as WAV,
// which is what the web and mobile recorders produce.
func mediaFormat(audio []byte) (types.MediaFormat, string) {
	switch {
	case bytes.HasPrefix(audio, []byte("RIFF")):
		return types.MediaFormatWav, "audio/wav"
	case bytes.HasPrefix(audio, []byte("OggS")):
		return types.MediaFormatOgg, "audio/ogg"
	case bytes.HasPrefix(audio, []byte("fLaC")):
		return types.MediaFormatFlac, "audio/flac"
	case bytes.HasPrefix(audio, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return types.MediaFormatWebm, "audio/webm"
	case bytes.HasPrefix(audio, []byte("ID3")), len(audio) > 1 && audio[0] == 0xFF && audio[1]&0xE0 == 0xE0:
		return types.MediaFormatMp3, "audio/mpeg"
	case len(audio) > 8 && bytes.Equal(audio[4:8], []byte("ftyp")):
		return types.MediaFormatMp4, "audio/mp4"
	default:
		return types.MediaFormatWav, "audio/wav"
	}
}
