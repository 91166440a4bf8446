// Copyright (c) 2026 Canonical Ltd
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package download

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
)

const (
	defaultFTPPort = "21"
	anonymousUser  = "anonymous"
)

type ftpFetcher struct {
	timeout time.Duration
}

func newFTPFetcher(opts Options) *ftpFetcher {
	return &ftpFetcher{timeout: opts.ConnectTimeout}
}

func (f *ftpFetcher) fetch(ctx context.Context, src *url.URL) (io.ReadCloser, error) {
	port := src.Port()
	if port == "" {
		port = defaultFTPPort
	}

	conn, err := ftp.Dial(net.JoinHostPort(src.Hostname(), port),
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(f.timeout),
	)
	if err != nil {
		return nil, err
	}

	user, password := anonymousUser, anonymousUser
	if src.User != nil {
		user = src.User.Username()
		if p, ok := src.User.Password(); ok {
			password = p
		}
	}

	if err := conn.Login(user, password); err != nil {
		//nolint:errcheck // login error is more important
		conn.Quit()
		return nil, err
	}

	resp, err := conn.Retr(src.Path)
	if err != nil {
		//nolint:errcheck // retrieval error is more important
		conn.Quit()
		return nil, err
	}

	return &ftpBody{Response: resp, conn: conn}, nil
}

// ftpBody closes the control connection once the transfer is closed.
type ftpBody struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (b *ftpBody) Close() error {
	err := b.Response.Close()
	if qerr := b.conn.Quit(); err == nil {
		err = qerr
	}

	return err
}
