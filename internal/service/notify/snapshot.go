package notify

import (
	"feedpulse/internal/domain"
)

// project captures the point-in-time display snapshot for an event. Capture
// is best-effort: an event whose payload is missing still yields a minimal
// snapshot so the write is recorded rather than aborted. The snapshot is
// recomputed and overwritten on every merge, so stale titles or renamed
// actors never linger in old rows.
func project(ev domain.Event) domain.Snapshot {
	switch ev.Kind {
	case domain.KindReaction:
		if p := ev.Reaction; p != nil {
			return domain.Snapshot{
				Title:    p.Title,
				Path:     p.Path,
				Category: p.Category,
			}
		}
	case domain.KindComment:
		if p := ev.Comment; p != nil {
			return domain.Snapshot{
				Title:         p.Title,
				Path:          p.Path,
				ProcessedHTML: p.ProcessedHTML,
				// Depth 0 is a top-level comment ("commented on");
				// anything nested renders as "replied to a thread in".
				Reply: p.Depth >= 1,
			}
		}
	case domain.KindFollow:
		if p := ev.Follow; p != nil {
			return domain.Snapshot{Title: p.FolloweeName}
		}
	case domain.KindMention:
		if p := ev.Mention; p != nil {
			return domain.Snapshot{
				Title:         p.Title,
				Path:          p.Path,
				ProcessedHTML: p.ProcessedHTML,
			}
		}
	case domain.KindBadgeAchievement:
		if p := ev.Badge; p != nil {
			return domain.Snapshot{
				Title:     p.BadgeTitle,
				BadgeDesc: p.BadgeDesc,
				Credits:   p.CreditsAwarded,
				Message:   p.Message,
			}
		}
	case domain.KindBroadcast:
		if p := ev.Broadcast; p != nil {
			return domain.Snapshot{
				Title:         p.Title,
				ProcessedHTML: p.ProcessedHTML,
			}
		}
	case domain.KindModerationTrigger:
		if p := ev.Moderation; p != nil {
			return domain.Snapshot{
				Title:         p.Title,
				Path:          p.Path,
				ProcessedHTML: p.ProcessedHTML,
			}
		}
	case domain.KindArticlePublished:
		if p := ev.Article; p != nil {
			published := p.PublishedAt
			return domain.Snapshot{
				Title:       p.Title,
				Path:        p.Path,
				PublishedAt: &published,
			}
		}
	}
	return domain.Snapshot{Minimal: true}
}
