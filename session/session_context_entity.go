package session

import (
	"context"
	"time"

	"greenlight/authority"

	"github.com/fundwit/go-commons/types"
)

type Context struct {
	// request-scoped context, carries the trace span
	Context context.Context `json:"-"`

	Token    string                `json:"token"`
	Identity Identity              `json:"identity"`
	Perms    authority.Permissions `json:"perms"`

	SigningTime time.Time `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (c *Context) HasAdminRole() bool {
	return c != nil && c.Perms.HasAdminRole()
}

func (c Context) Clone() Context {
	perms := make(authority.Permissions, len(c.Perms))
	copy(perms, c.Perms)
	clone := c
	clone.Perms = perms
	return clone
}
