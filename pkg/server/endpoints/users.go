package endpoints

import (
	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server"
)

// RegisterUsersEndpoints registers the /users/ resource, addressed by email.
// Password hashes never leave the store; responses omit them. Deleting a
// user revokes all of that user's sessions.
func RegisterUsersEndpoints(s *server.Server) {
	users := registerResource[model.User](s, "user", "/users/", s.UsersStore)
	users.afterDelete = func(user *model.User) error {
		return s.Sessions.RevokeUser(user.PrimaryKey)
	}
}
