package recommend

import (
	"sort"

	"github.com/xxxsen/mycontent/internal/model"
)

type indexOptions struct {
	dedup bool
}

type IndexOption func(*indexOptions)

// WithDedup keeps only the first click of each (user, article) pair, so repeated
// clicks no longer weigh more in the profile mean.
func WithDedup(v bool) IndexOption {
	return func(o *indexOptions) {
		o.dedup = v
	}
}

// InteractionIndex maps a user to the articles it clicked, in log order.
// It is read-only once built.
type InteractionIndex struct {
	clicks map[int64][]int64
	users  []int64
	total  int
}

func NewInteractionIndex(clicks []model.Click, opts ...IndexOption) *InteractionIndex {
	o := &indexOptions{}
	for _, opt := range opts {
		opt(o)
	}
	idx := &InteractionIndex{clicks: make(map[int64][]int64, 1024)}
	var seen map[int64]map[int64]struct{}
	if o.dedup {
		seen = make(map[int64]map[int64]struct{}, 1024)
	}
	for _, c := range clicks {
		if o.dedup {
			userSeen, ok := seen[c.UserID]
			if !ok {
				userSeen = make(map[int64]struct{})
				seen[c.UserID] = userSeen
			}
			if _, dup := userSeen[c.ArticleID]; dup {
				continue
			}
			userSeen[c.ArticleID] = struct{}{}
		}
		if _, ok := idx.clicks[c.UserID]; !ok {
			idx.users = append(idx.users, c.UserID)
		}
		idx.clicks[c.UserID] = append(idx.clicks[c.UserID], c.ArticleID)
		idx.total++
	}
	sort.Slice(idx.users, func(i, j int) bool { return idx.users[i] < idx.users[j] })
	return idx
}

// ItemsClickedBy returns a copy of the user's clicked article ids. Unknown users
// yield an empty slice.
func (x *InteractionIndex) ItemsClickedBy(userID int64) []int64 {
	items := x.clicks[userID]
	out := make([]int64, len(items))
	copy(out, items)
	return out
}

func (x *InteractionIndex) Has(userID int64) bool {
	_, ok := x.clicks[userID]
	return ok
}

// Users returns the ids of every user with history, ascending.
func (x *InteractionIndex) Users() []int64 {
	out := make([]int64, len(x.users))
	copy(out, x.users)
	return out
}

func (x *InteractionIndex) Len() int {
	return len(x.users)
}

// Clicks is the number of indexed records, after dedup.
func (x *InteractionIndex) Clicks() int {
	return x.total
}
