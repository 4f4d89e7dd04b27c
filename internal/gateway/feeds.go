package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"datfeed/gateway/internal/boardmenu"
	"datfeed/gateway/internal/dat"
	"datfeed/gateway/internal/models"
	"datfeed/gateway/internal/render"
)

// Feed dispatches on req.Kind.
func (s *Service) Feed(ctx context.Context, req Request) (models.FeedDocument, error) {
	if req.Kind == KindThread {
		return s.ThreadFeed(ctx, req)
	}
	return s.BoardFeed(ctx, req)
}

// BoardFeed renders the thread listing of a board.
func (s *Service) BoardFeed(ctx context.Context, req Request) (models.FeedDocument, error) {
	return s.GetFeed(ctx, req.Key(s.cfg.ShowHead), s.cfg.BoardCacheTTL, func(ctx context.Context) (models.FeedDocument, error) {
		host, err := s.resolveHost(ctx, req.Server, req.Board)
		if err != nil {
			return models.FeedDocument{}, err
		}

		res, err := s.fetchOrigin(ctx, s.originURL(host, req.Board, "subject.txt"))
		if err != nil {
			return models.FeedDocument{}, err
		}
		content, err := dat.Decode(res.Origin.Content, s.cfg.OriginCharset)
		if err != nil {
			return models.FeedDocument{}, err
		}
		entries, err := dat.ParseBoardIndex(content)
		if err != nil {
			return models.FeedDocument{}, fmt.Errorf("board %s/%s: %w", host, req.Board, err)
		}

		if !req.Window.IsZero() {
			since := req.Window.Since(s.now())
			kept := entries[:0:0]
			for _, e := range entries {
				if e.CreatedAt != nil && !e.CreatedAt.Before(since) {
					kept = append(kept, e)
				}
			}
			entries = kept
		}
		if n := effectiveLimit(req.Limit, s.cfg.BoardMaxItems); n > 0 && len(entries) > n {
			entries = entries[:n]
		}

		title := s.boardTitle(ctx, host, req.Board)
		ch := render.Channel{
			Title:       title,
			Link:        render.BoardURL(host, req.Board),
			Description: title,
			Updated:     res.Origin.LastModified,
		}
		return render.Render(req.Format, ch, render.BoardItems(host, req.Board, entries))
	})
}

// ThreadFeed renders the most recent posts of a thread, newest first.
func (s *Service) ThreadFeed(ctx context.Context, req Request) (models.FeedDocument, error) {
	showHead := s.cfg.ShowHead
	return s.GetFeed(ctx, req.Key(showHead), s.cfg.ThreadCacheTTL, func(ctx context.Context) (models.FeedDocument, error) {
		host, err := s.resolveHost(ctx, req.Server, req.Board)
		if err != nil {
			return models.FeedDocument{}, err
		}

		res, err := s.fetchOrigin(ctx, s.originURL(host, req.Board, "dat/"+req.Thread+".dat"))
		if err != nil {
			return models.FeedDocument{}, err
		}
		content, err := dat.Decode(res.Origin.Content, s.cfg.OriginCharset)
		if err != nil {
			return models.FeedDocument{}, err
		}
		title, posts, err := dat.ParseThreadLog(content, host)
		if err != nil {
			return models.FeedDocument{}, fmt.Errorf("thread %s/%s/%s: %w", host, req.Board, req.Thread, err)
		}

		newest := make([]models.ThreadPost, 0, len(posts))
		for i := len(posts) - 1; i >= 0; i-- {
			newest = append(newest, posts[i])
		}
		if !req.Window.IsZero() {
			since := req.Window.Since(s.now())
			kept := newest[:0]
			for _, p := range newest {
				if !p.PostedAt.Before(since) {
					kept = append(kept, p)
				}
			}
			newest = kept
		}
		if n := effectiveLimit(req.Limit, s.cfg.ThreadMaxItems); n > 0 && len(newest) > n {
			newest = newest[:n]
		}

		ch := render.Channel{
			Title:       title,
			Link:        render.ThreadURL(host, req.Board, req.Thread),
			Description: title,
			Updated:     res.Origin.LastModified,
		}
		return render.Render(req.Format, ch, render.ThreadItems(host, req.Board, req.Thread, newest, showHead))
	})
}

// boardTitle reads BBS_TITLE from SETTING.TXT, falling back to the board
// name when it cannot be fetched.
func (s *Service) boardTitle(ctx context.Context, host, board string) string {
	key := host + "|" + board
	title, err := cacheAside(ctx, s.titles, key, s.cfg.BoardCacheTTL, s.cfg.ErrorCacheTTL, func(ctx context.Context) (string, error) {
		res, err := s.fetchOrigin(ctx, s.originURL(host, board, "SETTING.TXT"))
		if err != nil {
			return "", err
		}
		content, err := dat.Decode(res.Origin.Content, s.cfg.OriginCharset)
		if err != nil {
			return "", err
		}
		return dat.BoardTitle(dat.ParseSettings(content), board), nil
	})
	if err != nil {
		log.Warn().Err(err).Str("host", host).Str("board", board).Msg("Board title unavailable, using board name")
		return board
	}
	return title
}

// resolveHost maps board to the host listed in the board menu. Without a
// configured menu the requested server is used as is.
func (s *Service) resolveHost(ctx context.Context, server, board string) (string, error) {
	if s.cfg.MenuURL == "" {
		return server, nil
	}
	dir, err := s.directory(ctx)
	if err != nil {
		return "", err
	}
	return dir.Host(board)
}

func (s *Service) directory(ctx context.Context) (*boardmenu.Directory, error) {
	return cacheAside(ctx, s.menus, s.cfg.MenuURL, s.cfg.MenuCacheTTL, s.cfg.ErrorCacheTTL, func(ctx context.Context) (*boardmenu.Directory, error) {
		res, err := s.fetcher.Fetch(ctx, s.cfg.MenuURL)
		if err != nil {
			return nil, err
		}
		content, err := dat.Decode(res.Origin.Content, s.cfg.OriginCharset)
		if err != nil {
			return nil, err
		}
		boards, err := boardmenu.ParseMenu(strings.NewReader(content))
		if err != nil {
			return nil, err
		}
		return boardmenu.NewDirectory(boards), nil
	})
}
