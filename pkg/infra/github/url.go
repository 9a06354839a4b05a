package github

import (
	"net/url"
	"strings"

	"github.com/m-mizutani/forkwatch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

var allowedHosts = map[string]struct{}{
	"github.com":     {},
	"www.github.com": {},
}

// ParseRepoURL extracts {owner, repo} from a repository URL such as
// "https://github.com/ethereum/go-ethereum.git". Extra path segments beyond
// the first two are ignored.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", goerr.Wrap(err, "invalid repository URL",
			goerr.T(types.ErrTagParse), goerr.V("url", raw))
	}

	if _, ok := allowedHosts[strings.ToLower(u.Host)]; !ok {
		return "", "", goerr.New("unexpected repository host",
			goerr.T(types.ErrTagParse),
			goerr.V("url", raw), goerr.V("host", u.Host))
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", goerr.New("repository URL must contain owner and repo",
			goerr.T(types.ErrTagParse), goerr.V("url", raw))
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
