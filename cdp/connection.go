/*
 *
 * pageid - page identity validation for browser-driven tests
 * Copyright (C) 2021 Load Impact
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package cdp

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/gorilla/websocket"
	"github.com/mailru/easyjson"
	"github.com/pkg/errors"

	"github.com/grafana/pageid/log"
)

const wsHandshakeTimeout = 10 * time.Second

type connection struct {
	ws     *websocket.Conn
	wsURL  string
	logger *log.Logger

	closeOnce sync.Once
}

func dial(ctx context.Context, wsURL string, logger *log.Logger) (*connection, error) {
	wd := &websocket.Dialer{
		HandshakeTimeout: wsHandshakeTimeout,
		ReadBufferSize:   1 << 20,
		WriteBufferSize:  1 << 20,
		Proxy:            http.ProxyFromEnvironment,
	}
	ws, _, err := wd.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %q", wsURL)
	}

	return &connection{ws: ws, wsURL: wsURL, logger: logger}, nil
}

func (c *connection) readMessage() (*cdproto.Message, error) {
	_, buf, err := c.ws.ReadMessage()
	if err != nil {
		return nil, c.ioError(err)
	}
	var msg cdproto.Message
	if err := easyjson.Unmarshal(buf, &msg); err != nil {
		return nil, errors.Wrap(err, "decoding CDP message")
	}
	c.logger.Tracef("connection:readMessage", "wsURL:%q id:%d sid:%v method:%q", c.wsURL, msg.ID, msg.SessionID, msg.Method)

	return &msg, nil
}

func (c *connection) writeMessage(msg *cdproto.Message) error {
	buf, err := easyjson.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encoding CDP message")
	}
	c.logger.Tracef("connection:writeMessage", "wsURL:%q id:%d sid:%v method:%q", c.wsURL, msg.ID, msg.SessionID, msg.Method)
	if err := c.ws.WriteMessage(websocket.TextMessage, buf); err != nil {
		return c.ioError(err)
	}

	return nil
}

// ioError maps a websocket failure to ErrClosed when the peer or we closed
// the connection in an orderly way.
func (c *connection) ioError(err error) error {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		return ErrClosed
	case errors.Is(err, net.ErrClosed):
		return ErrClosed
	case websocket.IsUnexpectedCloseError(err):
		c.logger.Errorf("connection:ioError", "wsURL:%q unexpected close: %v", c.wsURL, err)
	}
	return errors.Wrapf(err, "CDP connection to %q", c.wsURL)
}

func (c *connection) close() (err error) {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}
