package webhook

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/sercha-indexer/internal/connectors/notion"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/logger"
)

// GitHub delivery headers.
const (
	headerGitHubEvent     = "X-GitHub-Event"
	headerGitHubSignature = "X-Hub-Signature-256"
)

func (s *Server) handleNotion(c *fiber.Ctx) error {
	hook, err := notion.ParseWebhook(c.Body())
	if err != nil {
		return fail(c, http.StatusBadRequest, err)
	}

	if hook.PageID == "" {
		if hook.VerificationToken != "" {
			logger.Info("Notion subscription verification token: %s", hook.VerificationToken)
			return c.JSON(fiber.Map{"ok": true, "verified": true})
		}
		return fail(c, http.StatusBadRequest, errors.New("no page id found"))
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	res, err := s.ingestor.Ingest(ctx, domain.ProviderWorkspacePage, hook.PageID)
	if err != nil {
		logger.Warn("Notion webhook for %s failed: %v", hook.PageID, err)
		return fail(c, statusFor(err), err)
	}
	return c.JSON(fiber.Map{
		"ok":          true,
		"result":      res.Result,
		"document_id": res.DocumentID,
		"action":      res.Action,
	})
}

// documentResult reports one file of a push delivery.
type documentResult struct {
	DocumentID string               `json:"document_id"`
	Result     domain.WebhookResult `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
}

func (s *Server) handleGitHub(c *fiber.Ctx) error {
	push, err := s.github.Parse(c.Get(headerGitHubEvent), c.Get(headerGitHubSignature), c.Body())
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		return fail(c, http.StatusUnauthorized, err)
	case errors.Is(err, domain.ErrUnsupportedType):
		return c.JSON(fiber.Map{"ok": true, "ignored": err.Error()})
	case err != nil:
		return fail(c, http.StatusBadRequest, err)
	}

	if push.Ping {
		return c.JSON(fiber.Map{"ok": true, "result": "pong"})
	}
	if push.Ignored != "" {
		logger.Debug("GitHub push ignored: %s", push.Ignored)
		return c.JSON(fiber.Map{"ok": true, "ignored": push.Ignored})
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	status := http.StatusOK
	results := make([]documentResult, 0, len(push.DocumentIDs))
	for _, id := range push.DocumentIDs {
		res, err := s.ingestor.Ingest(ctx, domain.ProviderRepoFile, id)
		if err != nil {
			// A removed file that was never indexed needs no work.
			if !errors.Is(err, domain.ErrDocumentAbsent) {
				logger.Warn("GitHub webhook for %s failed: %v", id, err)
				status = max(status, statusFor(err))
			}
			results = append(results, documentResult{DocumentID: id, Error: err.Error()})
			continue
		}
		results = append(results, documentResult{DocumentID: id, Result: res.Result})
	}

	return c.Status(status).JSON(fiber.Map{
		"ok":        status == http.StatusOK,
		"repo":      push.Repo,
		"branch":    push.Branch,
		"documents": results,
	})
}

// statusFor maps an ingest error to the HTTP status returned to the provider.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDocumentAbsent):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingDocumentID), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDispatchInFlight):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": err.Error()})
}
