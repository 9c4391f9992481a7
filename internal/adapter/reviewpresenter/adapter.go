package reviewpresenter

import (
	"github.com/park285/chesscom-review/internal/domain"
	"github.com/park285/chesscom-review/pkg/reviewdto"
)

func ToDTOProfile(p domain.Profile) reviewdto.Profile {
	out := reviewdto.Profile{Username: p.Username}
	if p.Title != nil {
		t := *p.Title
		out.Title = &t
	}
	if p.Rating != nil {
		r := *p.Rating
		out.Rating = &r
	}
	return out
}
