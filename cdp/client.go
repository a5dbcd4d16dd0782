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

// Package cdp is a minimal Chrome DevTools Protocol client and the page
// surface built on it.
package cdp

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/mailru/easyjson"
	"github.com/pkg/errors"

	"github.com/grafana/pageid/cdp/domains"
	"github.com/grafana/pageid/log"
)

var (
	// ErrClosed is returned by commands executed on a closed client.
	ErrClosed = errors.New("CDP connection closed")
	// ErrNotConnected is returned by commands executed before Connect.
	ErrNotConnected = errors.New("CDP connection not established")
)

var _ cdp.Executor = &Client{}

// Client manages CDP communication with the browser.
type Client struct {
	logger *log.Logger

	Browser domains.Browser
	Page    domains.Page
	Runtime domains.Runtime
	Target  domains.Target

	conn      *connection
	wsURL     string
	msgID     int64
	sendCh    chan *cdproto.Message
	msgSubsMu sync.Mutex
	msgSubs   map[int64]chan *cdproto.Message

	done     chan struct{}
	doneOnce sync.Once
	err      error
}

// NewClient returns a new Client that is unusable until a CDP connection is
// established with Connect().
func NewClient(logger *log.Logger) *Client {
	c := &Client{
		logger:  logger,
		sendCh:  make(chan *cdproto.Message, 32), // Buffered to avoid blocking in Execute
		msgSubs: make(map[int64]chan *cdproto.Message),
		done:    make(chan struct{}),
	}

	c.Browser = domains.NewBrowser(c)
	c.Page = domains.NewPage(c)
	c.Runtime = domains.NewRuntime(c)
	c.Target = domains.NewTarget(c)

	return c
}

// Connect to the browser that exposes a CDP API at wsURL.
func (c *Client) Connect(ctx context.Context, wsURL string) (err error) {
	if c.wsURL != "" {
		return errors.Errorf("CDP connection already established to %q", c.wsURL)
	}

	if c.conn, err = dial(ctx, wsURL, c.logger); err != nil {
		return err
	}
	c.logger.Infof("cdp", "established CDP connection to %q", wsURL)
	c.wsURL = wsURL

	go c.recvLoop()
	go c.sendLoop()

	return nil
}

// Close disconnects from the browser's CDP API.
// Commands still waiting for a reply return ErrClosed.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	c.shutdown(ErrClosed)
	return c.conn.close()
}

// Done is closed once the connection is lost or closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the reason the connection ended, or nil while it is up.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Execute implements cdp.Executor and performs a synchronous send and
// receive. The command goes to the session set in ctx by WithSessionID.
func (c *Client) Execute(ctx context.Context, method string, params easyjson.Marshaler, res easyjson.Unmarshaler) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	sid := GetSessionID(ctx)
	c.logger.Debugf("Client:Execute", "wsURL:%q sid:%v method:%q", c.wsURL, sid, method)

	var buf []byte
	if params != nil {
		var err error
		if buf, err = easyjson.Marshal(params); err != nil {
			return errors.Wrapf(err, "encoding %s params", method)
		}
	}
	msg := &cdproto.Message{
		ID:        atomic.AddInt64(&c.msgID, 1),
		SessionID: target.SessionID(sid),
		Method:    cdproto.MethodType(method),
		Params:    buf,
	}

	// Register the reply channel before sending so that a fast reply is
	// never dropped.
	recvCh := make(chan *cdproto.Message, 1)
	c.msgSubsMu.Lock()
	c.msgSubs[msg.ID] = recvCh
	c.msgSubsMu.Unlock()
	defer func() {
		c.msgSubsMu.Lock()
		delete(c.msgSubs, msg.ID)
		c.msgSubsMu.Unlock()
	}()

	select {
	case c.sendCh <- msg:
	case <-c.done:
		return c.err
	case <-ctx.Done():
		c.logger.Debugf("Client:Execute:<-ctx.Done()", "wsURL:%q sid:%v method:%q err:%v", c.wsURL, sid, method, ctx.Err())
		return ctx.Err()
	}

	select {
	case reply := <-recvCh:
		switch {
		case reply.Error != nil:
			return errors.Wrapf(reply.Error, "executing %s", method)
		case res != nil:
			return errors.Wrapf(easyjson.Unmarshal(reply.Result, res), "decoding %s result", method)
		}
		return nil
	case <-c.done:
		return c.err
	case <-ctx.Done():
		c.logger.Debugf("Client:Execute:<-ctx.Done()#2", "wsURL:%q sid:%v method:%q err:%v", c.wsURL, sid, method, ctx.Err())
		return ctx.Err()
	}
}

func (c *Client) shutdown(err error) {
	c.doneOnce.Do(func() {
		c.err = err
		close(c.done)
	})
}

func (c *Client) recvLoop() {
	for {
		msg, err := c.conn.readMessage()
		if err != nil {
			if !errors.Is(err, ErrClosed) {
				c.logger.Errorf("Client:recvLoop", "wsURL:%q ioErr:%v", c.wsURL, err)
			}
			c.shutdown(err)
			return
		}

		switch {
		case msg.ID > 0:
			c.msgSubsMu.Lock()
			ch, ok := c.msgSubs[msg.ID]
			c.msgSubsMu.Unlock()
			if !ok {
				c.logger.Debugf("Client:recvLoop", "wsURL:%q dropping reply to abandoned message id:%d", c.wsURL, msg.ID)
				continue
			}
			ch <- msg
		case msg.Method != "":
			// Events are not subscribed to.
			c.logger.Tracef("Client:recvLoop", "wsURL:%q sid:%v ignoring %q event", c.wsURL, msg.SessionID, msg.Method)
		default:
			c.logger.Errorf("Client:recvLoop", "ignoring malformed incoming CDP message (missing id or method): %#v", msg)
		}
	}
}

func (c *Client) sendLoop() {
	for {
		select {
		case msg := <-c.sendCh:
			if err := c.conn.writeMessage(msg); err != nil {
				c.logger.Errorf("Client:sendLoop", "wsURL:%q id:%d ioErr:%v", c.wsURL, msg.ID, err)
				c.shutdown(err)
				return
			}
		case <-c.done:
			c.logger.Debugf("Client:sendLoop:<-c.done", "wsURL:%q", c.wsURL)
			return
		}
	}
}
