package commandimpl

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/cache"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/render"
)

func newKeyboard(rows ...[]tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmMediaKeyboard(mediaID int64) tgbotapi.InlineKeyboardMarkup {
	return render.ConfirmKeyboard("media", mediaID)
}

func (c *CommandImpl) handlePostArg(ctx context.Context, chatID int64, args string) {
	postID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || postID <= 0 {
		c.Telegram.SendMessage(chatID, "Usage: /post <id>")
		return
	}
	c.showPost(ctx, chatID, postID)
}

func (c *CommandImpl) showPost(ctx context.Context, chatID, postID int64) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	key := cache.NewKey("post", chatID, postID)
	post, err := cache.Fetch(ctx, c.Cache, key, func(ctx context.Context) (*domain.Post, error) {
		return c.Api.GetPost(ctx, sess, postID)
	})
	if err != nil {
		c.reportError(chatID, "load the post", err)
		return
	}

	kb := render.PostKeyboard(post, sess.User.ID)
	c.Telegram.SendMarkdown(chatID, render.Post(post, c.Clock.Now()), &kb)

	// Detail reads may return media records without a direct URL; resolve
	// them individually before building the album. The post is shared with
	// the cache, so the URLs go into a copy, never the cached value.
	media := make([]domain.Media, len(post.Media))
	copy(media, post.Media)
	for i := range media {
		if media[i].URL != "" {
			continue
		}
		u, err := c.Api.GetMediaURL(ctx, sess, media[i].ID)
		if err != nil {
			c.Logger.Warn("Failed to resolve media URL", "chat_id", chatID, "media_id", media[i].ID, "error", err)
			continue
		}
		media[i].URL = u
	}

	if group := render.MediaGroup(media); len(group) > 0 {
		if err := c.Telegram.SendMediaGroup(chatID, group); err != nil {
			c.Logger.Warn("Failed to send media group", "chat_id", chatID, "post_id", postID, "error", err)
		}
	}

	if post.OwnedBy(sess.User.ID) && len(post.Media) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, 1)
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🖼 Manage attachments", fmt.Sprintf("post:media:%d", postID)),
		})
		mediaKb := newKeyboard(rows...)
		c.Telegram.SendMarkdown(chatID, escText("Attachments can be removed individually."), &mediaKb)
	}
}

// handleNewPost starts the compose flow: content, then privacy, then
// optional photos finished with /done.
func (c *CommandImpl) handleNewPost(ctx context.Context, chatID int64, args string) {
	if _, ok := c.requireSession(ctx, chatID); !ok {
		return
	}

	if args != "" {
		c.handlePostContent(ctx, chatID, args)
		return
	}

	c.setPending(chatID, &pending{kind: pendingPostContent})
	c.Telegram.SendMessage(chatID, "What's on your mind? Send the post text (or /cancel).")
}

func (c *CommandImpl) handlePostContent(ctx context.Context, chatID int64, content string) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}
	if strings.TrimSpace(content) == "" {
		c.Telegram.SendMessage(chatID, "The post text cannot be empty.")
		return
	}

	post, err := c.Api.CreatePost(ctx, sess, domain.CreatePostInput{
		Content: content,
		Privacy: domain.PrivacyPublic,
	})
	if err != nil {
		c.clearPending(chatID)
		c.reportError(chatID, "create the post", err)
		return
	}

	c.invalidateAuthorFeeds(chatID, sess.User.ID)
	c.setPending(chatID, &pending{kind: pendingPostMedia, targetID: post.ID})

	kb := newKeyboard([]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🔒 Make private", fmt.Sprintf("post:private:%d", post.ID)),
	})
	c.Telegram.SendMarkdown(chatID,
		escText(fmt.Sprintf("Posted (#%d, public). Send up to %d photos to attach, then /done. Or /done to finish now.",
			post.ID, domain.MaxMediaPerPost)), &kb)
}

// handleIncomingFile stages a photo or image document sent while composing.
func (c *CommandImpl) handleIncomingFile(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	p := c.getPending(chatID)
	if p == nil || p.kind != pendingPostMedia {
		c.Telegram.SendMessage(chatID, "Start a post with /newpost before sending photos.")
		return
	}

	if len(p.uploads) >= domain.MaxMediaPerPost {
		c.Telegram.SendMessage(chatID, fmt.Sprintf("At most %d files per post. Send /done to upload.", domain.MaxMediaPerPost))
		return
	}

	fileID, filename, mimeType, size := incomingFileInfo(msg)
	if fileID == "" {
		c.Telegram.SendMessage(chatID, "Only image files are supported.")
		return
	}
	if size > domain.MaxMediaFileSize {
		c.Telegram.SendMessage(chatID, "That file is over the 10MB limit.")
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if !domain.AllowedMediaExtensions[ext] {
		c.Telegram.SendMessage(chatID, "Unsupported file type. Allowed: jpg, jpeg, png, gif, webp.")
		return
	}

	data, err := c.Telegram.DownloadFile(ctx, fileID)
	if err != nil {
		c.reportError(chatID, "fetch the file", err)
		return
	}

	p.uploads = append(p.uploads, domain.Upload{
		Filename: filename,
		MimeType: mimeType,
		Data:     data,
	})

	// One progress line per compose flow, updated in place as files arrive.
	progress := fmt.Sprintf("Attached %d/%d. Send more or /done.", len(p.uploads), domain.MaxMediaPerPost)
	if p.progressID == 0 || c.Telegram.EditMessageText(chatID, p.progressID, progress) != nil {
		if id, err := c.Telegram.SendMessage(chatID, progress); err == nil {
			p.progressID = id
		}
	}
	c.setPending(chatID, p)
}

func (c *CommandImpl) handleUploadDone(ctx context.Context, chatID int64) {
	p := c.getPending(chatID)
	if p == nil || p.kind != pendingPostMedia {
		c.Telegram.SendMessage(chatID, "Nothing to finish.")
		return
	}

	// Staged files survive a transient session error; only a real upload
	// attempt consumes them.
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}
	c.clearPending(chatID)

	if len(p.uploads) == 0 {
		c.Telegram.SendMessage(chatID, fmt.Sprintf("Done. View it with /post %d.", p.targetID))
		return
	}

	media, err := c.Api.UploadMedia(ctx, sess, p.targetID, p.uploads)
	if err != nil {
		c.reportError(chatID, "upload media", err)
		return
	}

	c.Cache.InvalidatePrefix("feed", chatID)
	c.Cache.Invalidate(cache.NewKey("post", chatID, p.targetID))
	c.Telegram.SendMessage(chatID,
		fmt.Sprintf("Uploaded %d file(s). View the post with /post %d.", len(media), p.targetID))
}

func (c *CommandImpl) handlePostPrivacy(ctx context.Context, chatID, postID int64, privacy domain.Privacy) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	if _, err := c.Api.UpdatePost(ctx, sess, postID, domain.UpdatePostInput{Privacy: &privacy}); err != nil {
		c.reportError(chatID, "change the post's privacy", err)
		return
	}

	c.invalidateAuthorFeeds(chatID, sess.User.ID)
	c.Cache.Invalidate(cache.NewKey("post", chatID, postID))
	c.Telegram.SendMessage(chatID, "Post is now "+string(privacy)+".")
}

func (c *CommandImpl) handleLike(ctx context.Context, chatID, postID int64, like bool) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	var err error
	if like {
		err = c.Api.LikePost(ctx, sess, postID)
	} else {
		err = c.Api.UnlikePost(ctx, sess, postID)
	}
	if err != nil {
		c.reportError(chatID, "update the like", err)
		return
	}

	// Counters are server-authoritative: invalidate and let the next read
	// refetch rather than adjusting anything locally.
	c.Cache.Invalidate(cache.NewKey("post", chatID, postID))
	c.Cache.InvalidatePrefix("feed", chatID)
	c.Cache.InvalidatePrefix("explore", chatID)
}

func (c *CommandImpl) handleComments(ctx context.Context, chatID, postID int64) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	key := cache.NewKey("comments", postID)
	comments, err := cache.Fetch(ctx, c.Cache, key, func(ctx context.Context) ([]domain.Comment, error) {
		return c.Api.GetComments(ctx, sess, postID)
	})
	if err != nil {
		c.reportError(chatID, "load comments", err)
		return
	}

	kb := render.CommentKeyboard(comments, sess.User.ID)
	c.Telegram.SendMarkdown(chatID, render.Comments(comments, c.Clock.Now()), kb)

	c.setPending(chatID, &pending{kind: pendingCommentContent, targetID: postID})
	c.Telegram.SendMessage(chatID, "Send a message to comment on this post, or /cancel.")
}

func (c *CommandImpl) handleCommentContent(ctx context.Context, chatID, postID int64, content string) {
	c.clearPending(chatID)

	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}
	if strings.TrimSpace(content) == "" {
		c.Telegram.SendMessage(chatID, "The comment cannot be empty.")
		return
	}

	if _, err := c.Api.CreateComment(ctx, sess, postID, content); err != nil {
		c.reportError(chatID, "post the comment", err)
		return
	}

	c.Cache.Invalidate(cache.NewKey("comments", postID), cache.NewKey("post", chatID, postID))
	c.Telegram.SendMessage(chatID, "Comment posted.")
}

func (c *CommandImpl) handleCommentEdit(ctx context.Context, chatID, commentID int64, content string) {
	c.clearPending(chatID)

	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	comment, err := c.Api.UpdateComment(ctx, sess, commentID, content)
	if err != nil {
		c.reportError(chatID, "update the comment", err)
		return
	}

	c.Cache.Invalidate(cache.NewKey("comments", comment.PostID))
	c.Telegram.SendMessage(chatID, "Comment updated.")
}

func (c *CommandImpl) handleCommentDelete(ctx context.Context, chatID, commentID int64) {
	kb := render.ConfirmKeyboard("comment", commentID)
	c.Telegram.SendMarkdown(chatID, escText("Delete this comment? This cannot be undone."), &kb)
}

func (c *CommandImpl) handleCommentDeleteConfirmed(ctx context.Context, chatID, commentID int64) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	if err := c.Api.DeleteComment(ctx, sess, commentID); err != nil {
		c.reportError(chatID, "delete the comment", err)
		return
	}

	c.Cache.InvalidatePrefix("comments")
	c.Telegram.SendMessage(chatID, "Comment deleted.")
}

func (c *CommandImpl) handlePostEdit(ctx context.Context, chatID, postID int64) {
	c.setPending(chatID, &pending{kind: pendingPostEdit, targetID: postID})
	c.Telegram.SendMessage(chatID, "Send the new post text.")
}

func (c *CommandImpl) handlePostEditContent(ctx context.Context, chatID, postID int64, content string) {
	c.clearPending(chatID)

	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	if _, err := c.Api.UpdatePost(ctx, sess, postID, domain.UpdatePostInput{Content: &content}); err != nil {
		c.reportError(chatID, "update the post", err)
		return
	}

	c.invalidateAuthorFeeds(chatID, sess.User.ID)
	c.Cache.Invalidate(cache.NewKey("post", chatID, postID))
	c.Telegram.SendMessage(chatID, "Post updated.")
}

func (c *CommandImpl) handlePostDelete(ctx context.Context, chatID, postID int64) {
	kb := render.ConfirmKeyboard("post", postID)
	c.Telegram.SendMarkdown(chatID, escText("Delete this post? This cannot be undone."), &kb)
}

func (c *CommandImpl) handlePostDeleteConfirmed(ctx context.Context, chatID, postID int64) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	if err := c.Api.DeletePost(ctx, sess, postID); err != nil {
		c.reportError(chatID, "delete the post", err)
		return
	}

	c.invalidateAuthorFeeds(chatID, sess.User.ID)
	c.Cache.Invalidate(cache.NewKey("post", chatID, postID))
	c.Telegram.SendMessage(chatID, "Post deleted.")
}

// handlePostMedia lists a post's attachments with individual remove
// controls, owner only.
func (c *CommandImpl) handlePostMedia(ctx context.Context, chatID, postID int64) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	post, err := c.Api.GetPost(ctx, sess, postID)
	if err != nil {
		c.reportError(chatID, "load the post", err)
		return
	}
	if !post.OwnedBy(sess.User.ID) {
		c.Telegram.SendMessage(chatID, "Only the post's owner can manage its attachments.")
		return
	}
	if len(post.Media) == 0 {
		c.Telegram.SendMessage(chatID, "This post has no attachments.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(post.Media))
	for _, m := range post.Media {
		name := m.OriginalFilename
		if name == "" {
			name = m.Filename
		}
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+name, fmt.Sprintf("media:delete:%d", m.ID)),
		})
	}
	kb := newKeyboard(rows...)
	c.Telegram.SendMarkdown(chatID, escText("Attachments:"), &kb)
}

func (c *CommandImpl) handleMediaDeleteConfirmed(ctx context.Context, chatID, mediaID int64) {
	sess, ok := c.requireSession(ctx, chatID)
	if !ok {
		return
	}

	if err := c.Api.DeleteMedia(ctx, sess, mediaID); err != nil {
		c.reportError(chatID, "delete the attachment", err)
		return
	}

	c.Cache.InvalidatePrefix("post", chatID)
	c.Cache.InvalidatePrefix("feed", chatID)
	c.Telegram.SendMessage(chatID, "Attachment deleted.")
}

// invalidateAuthorFeeds drops every cached listing that could contain the
// viewer's own posts.
func (c *CommandImpl) invalidateAuthorFeeds(chatID, authorID int64) {
	c.Cache.InvalidatePrefix("feed", chatID)
	c.Cache.InvalidatePrefix("explore", chatID)
	c.Cache.InvalidatePrefix("uposts", chatID, authorID)
	c.Cache.InvalidatePrefix("search", chatID)
}

// incomingFileInfo extracts the uploadable file from a message: the largest
// photo size, or an image document.
func incomingFileInfo(msg *tgbotapi.Message) (fileID, filename, mimeType string, size int) {
	if len(msg.Photo) > 0 {
		best := msg.Photo[len(msg.Photo)-1]
		return best.FileID, fmt.Sprintf("photo_%s.jpg", best.FileUniqueID), "image/jpeg", best.FileSize
	}
	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		return doc.FileID, doc.FileName, doc.MimeType, doc.FileSize
	}
	return "", "", "", 0
}
