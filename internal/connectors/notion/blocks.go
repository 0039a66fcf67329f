package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
)

// maxDepth bounds recursion into nested blocks.
const maxDepth = 8

// renderBlocks walks the block tree under root and renders it as
// markdown-flavoured plain text, one block per line.
func (p *Provider) renderBlocks(ctx context.Context, root notionapi.BlockID) (string, error) {
	var sb strings.Builder
	if err := p.walk(ctx, root, 0, &sb); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

func (p *Provider) walk(ctx context.Context, id notionapi.BlockID, depth int, sb *strings.Builder) error {
	if depth > maxDepth {
		return nil
	}

	var cursor notionapi.Cursor
	for {
		resp, err := p.client.Block.GetChildren(ctx, id, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return err
		}

		for _, block := range resp.Results {
			if line := blockText(block); line != "" {
				sb.WriteString(strings.Repeat("  ", depth))
				sb.WriteString(line)
				sb.WriteString("\n")
			}
			if block.GetHasChildren() && !isLinkedDocument(block) {
				if err := p.walk(ctx, block.GetID(), depth+1, sb); err != nil {
					return err
				}
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

// blockText renders a single block without its children.
func blockText(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return richText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return prefixed("# ", richText(b.Heading1.RichText))
	case *notionapi.Heading2Block:
		return prefixed("## ", richText(b.Heading2.RichText))
	case *notionapi.Heading3Block:
		return prefixed("### ", richText(b.Heading3.RichText))
	case *notionapi.BulletedListItemBlock:
		return prefixed("- ", richText(b.BulletedListItem.RichText))
	case *notionapi.NumberedListItemBlock:
		return prefixed("1. ", richText(b.NumberedListItem.RichText))
	case *notionapi.ToDoBlock:
		box := "[ ] "
		if b.ToDo.Checked {
			box = "[x] "
		}
		return prefixed("- "+box, richText(b.ToDo.RichText))
	case *notionapi.CodeBlock:
		text := richText(b.Code.RichText)
		if text == "" {
			return ""
		}
		return "```" + b.Code.Language + "\n" + text + "\n```"
	case *notionapi.QuoteBlock:
		return prefixed("> ", richText(b.Quote.RichText))
	case *notionapi.CalloutBlock:
		return prefixed("> ", richText(b.Callout.RichText))
	case *notionapi.ToggleBlock:
		return richText(b.Toggle.RichText)
	case *notionapi.ChildPageBlock:
		return prefixed("Page: ", b.ChildPage.Title)
	case *notionapi.ChildDatabaseBlock:
		return prefixed("Database: ", b.ChildDatabase.Title)
	case *notionapi.TableRowBlock:
		cells := make([]string, 0, len(b.TableRow.Cells))
		for _, cell := range b.TableRow.Cells {
			cells = append(cells, richText(cell))
		}
		return "| " + strings.Join(cells, " | ") + " |"
	case *notionapi.BookmarkBlock:
		if caption := richText(b.Bookmark.Caption); caption != "" {
			return caption + " (" + b.Bookmark.URL + ")"
		}
		return b.Bookmark.URL
	case *notionapi.ImageBlock:
		return richText(b.Image.Caption)
	case *notionapi.VideoBlock:
		return richText(b.Video.Caption)
	case *notionapi.FileBlock:
		return richText(b.File.Caption)
	case *notionapi.DividerBlock:
		return "---"
	default:
		return ""
	}
}

// isLinkedDocument reports blocks whose children are separate documents.
func isLinkedDocument(block notionapi.Block) bool {
	switch block.(type) {
	case *notionapi.ChildPageBlock, *notionapi.ChildDatabaseBlock:
		return true
	}
	return false
}

func richText(parts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range parts {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

func prefixed(prefix, text string) string {
	if text == "" {
		return ""
	}
	return prefix + text
}
