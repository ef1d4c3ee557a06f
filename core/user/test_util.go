package user

import "github.com/ebdapp/ebd/core"

// NewServiceMock returns a Service that sends mail synchronously so tests
// can assert on sent messages without sleeping.
func NewServiceMock(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}
