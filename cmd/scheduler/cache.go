package main

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/meeting-scheduler/internal/application"
)

// organizerCache memoizes organizer lookups. Organizers are immutable once
// created, so entries never need invalidation; only successful lookups are
// stored.
type organizerCache struct {
	next  application.OrganizerDirectory
	cache *lru.Cache[string, application.Organizer]
}

var _ application.OrganizerDirectory = (*organizerCache)(nil)

// newOrganizerCache wraps next with an LRU of the given size. A non-positive
// size returns next unchanged.
func newOrganizerCache(next application.OrganizerDirectory, size int) (application.OrganizerDirectory, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[string, application.Organizer](size)
	if err != nil {
		return nil, err
	}
	return &organizerCache{next: next, cache: cache}, nil
}

func (c *organizerCache) GetOrganizer(ctx context.Context, id string) (application.Organizer, error) {
	if organizer, ok := c.cache.Get("id:" + id); ok {
		return organizer, nil
	}
	organizer, err := c.next.GetOrganizer(ctx, id)
	if err != nil {
		return application.Organizer{}, err
	}
	c.add(organizer)
	return organizer, nil
}

func (c *organizerCache) GetOrganizerByUsername(ctx context.Context, username string) (application.Organizer, error) {
	if organizer, ok := c.cache.Get("username:" + username); ok {
		return organizer, nil
	}
	organizer, err := c.next.GetOrganizerByUsername(ctx, username)
	if err != nil {
		return application.Organizer{}, err
	}
	c.add(organizer)
	return organizer, nil
}

func (c *organizerCache) add(organizer application.Organizer) {
	c.cache.Add("id:"+organizer.ID, organizer)
	c.cache.Add("username:"+organizer.Username, organizer)
}
