package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"arafiles/internal/domain"
	"arafiles/internal/layout"
	"arafiles/internal/render"
)

// ─────────────────────────────────────────────────────────────
// Export Service — paged PDF and single-image PNG exports
// ─────────────────────────────────────────────────────────────

// ExportService renders folders. Each export works on a snapshot of the
// folder taken when it starts, and a folder can only be exported once at a
// time. Output is assembled in memory and written to w only on success.
type ExportService struct {
	docs    *DocumentService
	blobs   domain.BlobStore
	fonts   *render.FontSet
	page    render.PageSpec
	sheet   render.SheetSpec
	emitter EventEmitter
	log     *zap.Logger
	guard   busyGuard
}

// NewExportService creates an ExportService. A nil fonts uses the embedded
// Go fonts.
func NewExportService(docs *DocumentService, blobs domain.BlobStore, fonts *render.FontSet, page render.PageSpec, sheet render.SheetSpec, emitter EventEmitter, log *zap.Logger) (*ExportService, error) {
	if fonts == nil {
		var err error
		if fonts, err = render.DefaultFonts(); err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ExportService{
		docs:    docs,
		blobs:   blobs,
		fonts:   fonts,
		page:    page,
		sheet:   sheet,
		emitter: emitter,
		log:     log.Named("export"),
	}, nil
}

// Busy reports whether the folder currently at index fi is being exported.
func (s *ExportService) Busy(fi int) bool {
	_, key, err := s.docs.folderRef(fi)
	if err != nil {
		return false
	}
	return s.guard.exporting(key)
}

// Wait blocks until running exports finish or ctx is done.
func (s *ExportService) Wait(ctx context.Context) {
	s.guard.drain(ctx)
}

// acquire snapshots folder fi and claims it for one export. The claim
// follows the folder, not the index.
func (s *ExportService) acquire(fi int) (domain.Folder, func(), error) {
	f, key, err := s.docs.folderRef(fi)
	if err != nil {
		return domain.Folder{}, nil, err
	}
	if !s.guard.start(key) {
		return domain.Folder{}, nil, fmt.Errorf("export folder %d: %w", fi, domain.ErrBusy)
	}
	return f, func() { s.guard.finish(key) }, nil
}

// ExportDocument paginates folder fi, rasterizes every page and writes a
// PDF with one A4 page per rendered page. It returns the page count. An
// empty folder produces no output and domain.ErrEmptyFolder.
func (s *ExportService) ExportDocument(ctx context.Context, fi int, w io.Writer) (int, error) {
	f, release, err := s.acquire(fi)
	if err != nil {
		return 0, err
	}
	defer release()

	blocks, err := s.prepare(ctx, fi, f)
	if err != nil {
		return 0, err
	}

	pager := render.NewPager(s.fonts, s.pageSpec(f), f.Title(), blocks)
	defer pager.Close()

	pdf := render.NewPDFAssembler(f.Title())
	err = pager.Engine().Run(ctx, len(blocks), pager.Measure, func(ctx context.Context, pg layout.Page) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := pdf.AddPage(pager.Render(pg)); err != nil {
			return err
		}
		s.progress(ctx, fi, "pdf", pdf.Pages(), false)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("export folder %d: %w", fi, err)
	}
	if err := pdf.Output(w); err != nil {
		return 0, err
	}
	s.progress(ctx, fi, "pdf", pdf.Pages(), true)
	s.log.Info("pdf exported", zap.Int("folder", fi), zap.Int("pages", pdf.Pages()))
	return pdf.Pages(), nil
}

// ExportImage renders folder fi as one tall PNG with balanced columns.
func (s *ExportService) ExportImage(ctx context.Context, fi int, w io.Writer) error {
	f, release, err := s.acquire(fi)
	if err != nil {
		return err
	}
	defer release()

	blocks, err := s.prepare(ctx, fi, f)
	if err != nil {
		return err
	}

	spec := s.sheet
	spec.RightToLeft = domain.DetectDirection(f.Title()) == domain.DirRTL
	img, err := render.RenderSheet(ctx, s.fonts, spec, f.Title(), blocks)
	if err != nil {
		return fmt.Errorf("export folder %d: %w", fi, err)
	}
	if err := render.EncodePNG(w, img); err != nil {
		return err
	}
	s.progress(ctx, fi, "png", 1, true)
	s.log.Info("png exported", zap.Int("folder", fi), zap.Int("height", img.Bounds().Dy()))
	return nil
}

// Plan returns the page/column assignment ExportDocument would produce,
// without rasterizing.
func (s *ExportService) Plan(ctx context.Context, fi int) ([]layout.Page, error) {
	f, err := s.docs.Folder(fi)
	if err != nil {
		return nil, err
	}
	blocks, err := s.prepare(ctx, fi, f)
	if err != nil {
		return nil, err
	}
	pager := render.NewPager(s.fonts, s.pageSpec(f), f.Title(), blocks)
	defer pager.Close()
	return pager.Engine().Paginate(ctx, len(blocks), pager.Measure)
}

func (s *ExportService) pageSpec(f domain.Folder) render.PageSpec {
	spec := s.page
	spec.RightToLeft = domain.DetectDirection(f.Title()) == domain.DirRTL
	return spec
}

// prepare resolves every image of the snapshot f before anything is
// measured, so block heights never depend on load timing.
func (s *ExportService) prepare(ctx context.Context, fi int, f domain.Folder) ([]render.Block, error) {
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("folder %d: %w", fi, domain.ErrEmptyFolder)
	}

	blocks := make([]render.Block, len(f.Questions))
	for i, q := range f.Questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		blocks[i] = render.Block{Number: i + 1, Question: q, NumberAlign: f.NumberAlign}
		if !q.HasImage() {
			continue
		}
		data, err := ResolveImage(ctx, s.blobs, q.ImageRef, q.LegacyImage, s.log)
		if err != nil {
			return nil, fmt.Errorf("load image for question %d: %w", i+1, err)
		}
		if data == nil {
			continue
		}
		img, err := render.DecodeImage(data.Bytes)
		if err != nil {
			s.log.Warn("skipping undecodable image", zap.Int("question", i+1), zap.Error(err))
			continue
		}
		blocks[i].Image = img
	}
	return blocks, nil
}

func (s *ExportService) progress(ctx context.Context, fi int, kind string, page int, done bool) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(ctx, EventExportProgress, ProgressEvent{Folder: fi, Kind: kind, Page: page, Done: done})
}
