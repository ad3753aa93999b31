package bot

import (
	"context"

	"github.com/leoqin/mediabot/models"
)

// handleSearch fans the keyword out to the search backends and sends one
// message per result chunk. A failed chunk send is logged inside send and
// does not stop the remaining chunks.
func (b *Bot) handleSearch(ctx context.Context, user models.User, chatID int64, args string) error {
	if args == "" {
		b.send(chatID, "用法：/search <关键词>")
		return nil
	}

	chunks, err := b.services.Search.Search(ctx, user, args)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		b.send(chatID, "没有找到相关资源。")
		return nil
	}

	for _, chunk := range chunks {
		b.send(chatID, chunk)
	}
	return nil
}
