// Package mailbox implements the mailbox ports over IMAP using
// go-imap v2. One client holds one authenticated session; the sorter
// runs synchronously, so no command pipelining is attempted.
package mailbox

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/mikey/mail-sorter/internal/core"
	"github.com/mikey/mail-sorter/internal/ports"
	"go.uber.org/zap"
)

var (
	_ core.MailboxClient = (*Client)(nil)
	_ ports.MessageMover = (*Client)(nil)
)

// Options configures the IMAP connection.
type Options struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool
}

// Client implements core.MailboxClient and ports.MessageMover over a
// single IMAP session.
type Client struct {
	cl     *imapclient.Client
	logger *zap.Logger
}

// Dial connects to the IMAP server and authenticates. The caller is
// responsible for calling Close when done.
func Dial(opts Options, logger *zap.Logger) (*Client, error) {
	addr := opts.Host + ":" + opts.Port

	var cl *imapclient.Client
	var err error
	if opts.TLS {
		cl, err = imapclient.DialTLS(addr, nil)
	} else {
		cl, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server %s: %w", addr, err)
	}

	if err := cl.Login(opts.Username, opts.Password).Wait(); err != nil {
		_ = cl.Logout().Wait()
		return nil, fmt.Errorf("IMAP authentication failed for %s: %w", opts.Username, err)
	}

	logger.Debug("Connected to IMAP server",
		zap.String("addr", addr), zap.String("user", opts.Username))
	return &Client{cl: cl, logger: logger}, nil
}

// Select makes the folder the current one for Search/Fetch
func (c *Client) Select(ctx context.Context, folder string) error {
	if _, err := c.cl.Select(folder, nil).Wait(); err != nil {
		return fmt.Errorf("failed to select folder %q: %w", folder, err)
	}
	return nil
}

// Status reports the folder fingerprint without selecting it
func (c *Client) Status(ctx context.Context, folder string) (core.Fingerprint, error) {
	data, err := c.cl.Status(folder, &imap.StatusOptions{
		NumMessages: true,
		UIDNext:     true,
		UIDValidity: true,
	}).Wait()
	if err != nil {
		return core.Fingerprint{}, fmt.Errorf("failed to get status of folder %q: %w", folder, err)
	}

	fp := core.Fingerprint{
		NextUID:     uint32(data.UIDNext),
		UIDValidity: data.UIDValidity,
	}
	if data.NumMessages != nil {
		fp.MessageCount = *data.NumMessages
	}
	return fp, nil
}

// Search returns the UIDs in the selected folder matching the
// criteria. Deleted messages are always excluded.
func (c *Client) Search(ctx context.Context, criteria core.SearchCriteria) ([]uint32, error) {
	imapCriteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagDeleted},
	}
	if !criteria.Since.IsZero() {
		imapCriteria.Since = criteria.Since
	}
	if criteria.UnseenOnly {
		imapCriteria.NotFlag = append(imapCriteria.NotFlag, imap.FlagSeen)
	}
	if criteria.SeenOnly {
		imapCriteria.Flag = append(imapCriteria.Flag, imap.FlagSeen)
	}

	data, err := c.cl.UIDSearch(imapCriteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	imapUIDs := data.AllUIDs()
	uids := make([]uint32, 0, len(imapUIDs))
	for _, uid := range imapUIDs {
		uids = append(uids, uint32(uid))
	}
	return uids, nil
}

// Fetch returns envelope addresses and raw headers for the given UIDs
func (c *Client) Fetch(ctx context.Context, uids []uint32) ([]core.MessageRecord, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	headerSection := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierHeader,
		Peek:      true,
	}
	fetchCmd := c.cl.Fetch(uidSet(uids), &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{headerSection},
	})
	defer fetchCmd.Close()

	var records []core.MessageRecord
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			c.logger.Warn("Failed to collect fetched message", zap.Error(err))
			continue
		}

		rec := core.MessageRecord{
			UID:       uint32(buf.UID),
			RawHeader: buf.FindBodySection(headerSection),
		}
		if buf.Envelope != nil {
			for _, from := range buf.Envelope.From {
				rec.From = append(rec.From, from.Addr())
			}
			for _, to := range buf.Envelope.To {
				rec.To = append(rec.To, to.Addr())
			}
		}
		records = append(records, rec)
	}

	if err := fetchCmd.Close(); err != nil {
		return records, fmt.Errorf("fetch failed: %w", err)
	}
	return records, nil
}

// Move moves messages to another folder. Servers without MOVE get the
// copy, flag-deleted, expunge sequence instead.
func (c *Client) Move(ctx context.Context, uids []uint32, folder string) error {
	set := uidSet(uids)

	if _, err := c.cl.Move(set, folder).Wait(); err == nil {
		return nil
	}

	if _, err := c.cl.Copy(set, folder).Wait(); err != nil {
		return fmt.Errorf("failed to copy messages to %q: %w", folder, err)
	}
	if err := c.storeFlags(set, imap.StoreFlagsAdd, []imap.Flag{imap.FlagDeleted}); err != nil {
		return fmt.Errorf("failed to mark messages deleted: %w", err)
	}
	return c.Expunge(ctx)
}

// AddFlags adds flags to messages in the selected folder
func (c *Client) AddFlags(ctx context.Context, uids []uint32, flags []string) error {
	imapFlags := make([]imap.Flag, 0, len(flags))
	for _, f := range flags {
		imapFlags = append(imapFlags, imap.Flag(f))
	}
	return c.storeFlags(uidSet(uids), imap.StoreFlagsAdd, imapFlags)
}

// Expunge permanently removes deleted messages from the selected folder
func (c *Client) Expunge(ctx context.Context) error {
	if err := c.cl.Expunge().Close(); err != nil {
		return fmt.Errorf("expunge failed: %w", err)
	}
	return nil
}

// Close logs out and closes the connection
func (c *Client) Close() error {
	return c.cl.Logout().Wait()
}

func (c *Client) storeFlags(set imap.UIDSet, op imap.StoreFlagsOp, flags []imap.Flag) error {
	return c.cl.Store(set, &imap.StoreFlags{
		Op:     op,
		Silent: true,
		Flags:  flags,
	}, nil).Close()
}

func uidSet(uids []uint32) imap.UIDSet {
	imapUIDs := make([]imap.UID, 0, len(uids))
	for _, uid := range uids {
		imapUIDs = append(imapUIDs, imap.UID(uid))
	}
	return imap.UIDSetNum(imapUIDs...)
}
