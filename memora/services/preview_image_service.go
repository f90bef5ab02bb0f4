package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/memoralabs/memora/memora/database/models"
)

// PreviewImageService renders share-card PNGs for memory pages. Used by
// the CRM to preview a page before an order ships and as the og:image
// for published pages.
type PreviewImageService struct {
	logger *slog.Logger
}

type previewData struct {
	Title        string
	Subtitle     string
	BlockCount   int
	PrimaryColor string
	AccentColor  string
	Theme        string
}

const previewTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
body { margin: 0; font-family: Georgia, serif; }
#preview-container {
	width: 600px; height: 315px;
	background: {{.PrimaryColor}};
	color: {{.AccentColor}};
	display: flex; flex-direction: column;
	justify-content: center; align-items: center;
}
.title { font-size: 42px; margin-bottom: 12px; }
.subtitle { font-size: 20px; opacity: 0.85; }
.meta { font-size: 14px; margin-top: 24px; opacity: 0.6; }
</style>
</head>
<body>
<div id="preview-container" class="theme-{{.Theme}}">
	<div class="title">{{.Title}}</div>
	<div class="subtitle">{{.Subtitle}}</div>
	<div class="meta">{{.BlockCount}} memories shared</div>
</div>
</body>
</html>`

func NewPreviewImageService() *PreviewImageService {
	service := &PreviewImageService{
		logger: slog.With(slog.String("service", "preview_image")),
	}

	service.testChromedpAvailability()

	return service
}

func (s *PreviewImageService) testChromedpAvailability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chromedpCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	err := chromedp.Run(chromedpCtx, chromedp.Navigate("data:text/html,<html><body>test</body></html>"))
	if err != nil {
		s.logger.Error("chromedp not available - preview generation will fail",
			slog.String("error", err.Error()))
	} else {
		s.logger.Info("chromedp is available and working")
	}
}

// GeneratePreview screenshots a rendered share card for the memory.
func (s *PreviewImageService) GeneratePreview(ctx context.Context, memory *models.Memory) ([]byte, error) {
	start := time.Now()
	s.logger.Info("Starting preview generation",
		slog.String("memory_id", memory.ID),
		slog.String("page_id", memory.PublicPageID))

	htmlContent, err := s.generateHTML(memory)
	if err != nil {
		s.logger.Error("Failed to generate HTML", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	chromedpCtx, cancel := chromedp.NewContext(ctx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	chromedpCtx, cancel = context.WithTimeout(chromedpCtx, 15*time.Second)
	defer cancel()

	var imageBytes []byte

	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("data:text/html,"+htmlContent),
		chromedp.WaitVisible("#preview-container", chromedp.ByID),
		chromedp.Sleep(200*time.Millisecond),
		chromedp.Screenshot("#preview-container", &imageBytes, chromedp.ByID),
	)

	if err != nil {
		s.logger.Error("Failed to generate preview with chromedp",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to generate preview: %w", err)
	}

	s.logger.Info("Preview generated successfully",
		slog.String("memory_id", memory.ID),
		slog.Int("image_size", len(imageBytes)),
		slog.Duration("elapsed", time.Since(start)))

	return imageBytes, nil
}

func (s *PreviewImageService) generateHTML(memory *models.Memory) (string, error) {
	title := memory.Title
	if title == "" {
		title = "In Loving Memory"
	}

	design := memory.Design
	primary := "#1f2937"
	accent := "#f9fafb"
	if len(design.Colors) >= 2 {
		primary, accent = design.Colors[0], design.Colors[1]
	}

	data := previewData{
		Title:        title,
		Subtitle:     memory.Description,
		BlockCount:   len(memory.Blocks),
		PrimaryColor: primary,
		AccentColor:  accent,
		Theme:        design.Theme,
	}

	tmpl, err := template.New("preview").Parse(previewTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	// Escape for the data: URL scheme.
	htmlContent := strings.ReplaceAll(buf.String(), "#", "%23")
	htmlContent = strings.ReplaceAll(htmlContent, "\n", "")

	return htmlContent, nil
}
