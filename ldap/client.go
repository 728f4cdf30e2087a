package ldap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"
)

// client implements the Client interface on top of a connection pool.
type client struct {
	pool   ConnectionPool
	config *ConnectionConfig
	log    *zap.Logger
}

// NewClient creates a new LDAP client with connection pooling.
func NewClient(config *ConnectionConfig) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &client{
		pool:   pool,
		config: config,
		log:    config.logger(),
	}, nil
}

// Connect verifies that a connection can be established and bound.
func (c *client) Connect(ctx context.Context) error {
	return logOperation(c.log, "connection_test", func() error {
		conn, err := c.pool.Get(ctx)
		if err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}
		defer conn.Close()

		return c.ping(conn)
	})
}

// Close closes the client and all its connections.
func (c *client) Close() error {
	return c.pool.Close()
}

// Bind authenticates with the LDAP server using explicit credentials.
func (c *client) Bind(ctx context.Context, username, password string) error {
	conn, err := c.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	return WrapError("bind", c.withRetry(ctx, func() error {
		return conn.Conn().Bind(username, password)
	}))
}

// Search performs a single LDAP search.
func (c *client) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req == nil {
		return nil, fmt.Errorf("search request cannot be nil")
	}

	conn, err := c.pool.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	ldapReq := ldap.NewSearchRequest(
		req.BaseDN,
		int(req.Scope),
		int(req.DerefAliases),
		req.SizeLimit,
		int(req.TimeLimit.Seconds()),
		false, // TypesOnly
		req.Filter,
		req.Attributes,
		nil, // Controls
	)

	var result *ldap.SearchResult
	err = c.withRetry(ctx, func() error {
		var searchErr error
		result, searchErr = conn.Conn().Search(ldapReq)
		return searchErr
	})

	if err != nil {
		c.logError("search", err, req)
		return nil, WrapError("search", err)
	}

	// If we got exactly the size limit, there may be more results
	hasMore := req.SizeLimit > 0 && len(result.Entries) >= req.SizeLimit

	return &SearchResult{
		Entries: result.Entries,
		Total:   len(result.Entries),
		HasMore: hasMore,
	}, nil
}

// SearchWithPaging performs an LDAP search with automatic pagination,
// accumulating all pages before returning. The page size comes from the
// request, falling back to DefaultPageSize.
func (c *client) SearchWithPaging(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req == nil {
		return nil, fmt.Errorf("search request cannot be nil")
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	conn, err := c.pool.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	start := time.Now()
	var allEntries []*ldap.Entry
	pagingControl := ldap.NewControlPaging(uint32(pageSize))
	pageNum := 0

	for {
		select {
		case <-ctx.Done():
			c.log.Warn("paged search cancelled",
				zap.String("base_dn", req.BaseDN),
				zap.Int("pages_completed", pageNum),
				zap.Int("entries_found", len(allEntries)))
			return &SearchResult{
				Entries: allEntries,
				Total:   len(allEntries),
				HasMore: true,
			}, ctx.Err()
		default:
		}

		pageNum++

		ldapReq := ldap.NewSearchRequest(
			req.BaseDN,
			int(req.Scope),
			int(req.DerefAliases),
			0, // No size limit when paging
			int(req.TimeLimit.Seconds()),
			false,
			req.Filter,
			req.Attributes,
			[]ldap.Control{pagingControl},
		)

		var result *ldap.SearchResult
		err = c.withRetry(ctx, func() error {
			var searchErr error
			result, searchErr = conn.Conn().Search(ldapReq)
			return searchErr
		})

		if err != nil {
			c.logError("paged_search", err, req)
			return nil, WrapError("paged_search", err)
		}

		allEntries = append(allEntries, result.Entries...)

		// The server signals completion with an empty continuation cookie
		pagingResult := ldap.FindControl(result.Controls, ldap.ControlTypePaging)
		responseControl, ok := pagingResult.(*ldap.ControlPaging)
		if !ok || len(responseControl.Cookie) == 0 {
			break
		}
		pagingControl.SetCookie(responseControl.Cookie)
	}

	c.log.Debug("paged search completed",
		zap.String("base_dn", req.BaseDN),
		zap.String("filter", req.Filter),
		zap.Int("pages", pageNum),
		zap.Int("total_entries", len(allEntries)),
		zap.Duration("duration", time.Since(start)))

	return &SearchResult{
		Entries: allEntries,
		Total:   len(allEntries),
		HasMore: false,
	}, nil
}

// Modify modifies an existing LDAP entry.
func (c *client) Modify(ctx context.Context, req *ModifyRequest) error {
	if req == nil {
		return fmt.Errorf("modify request cannot be nil")
	}

	conn, err := c.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	ldapReq := ldap.NewModifyRequest(req.DN, nil)

	for attr, values := range req.AddAttributes {
		ldapReq.Add(attr, values)
	}

	for attr, values := range req.ReplaceAttributes {
		ldapReq.Replace(attr, values)
	}

	for attr, values := range req.DeleteAttributes {
		ldapReq.Delete(attr, values)
	}

	return WrapError("modify", c.withRetry(ctx, func() error {
		return conn.Conn().Modify(ldapReq)
	}))
}

// Ping tests connectivity to the LDAP server.
func (c *client) Ping(ctx context.Context) error {
	conn, err := c.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	return c.ping(conn)
}

// ping performs a root DSE search to test connectivity.
func (c *client) ping(conn *PooledConnection) error {
	searchReq := ldap.NewSearchRequest(
		"", // Root DSE
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		1, 5, false,
		"(objectClass=*)",
		[]string{"defaultNamingContext"},
		nil,
	)

	_, err := conn.Conn().Search(searchReq)
	return err
}

// Stats returns pool statistics.
func (c *client) Stats() PoolStats {
	return c.pool.Stats()
}

// withRetry executes an operation, retrying transient failures with
// exponential backoff.
func (c *client) withRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	backoff := c.config.InitialBackoff

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if !c.isRetryableError(err) {
			return err
		}

		if attempt == c.config.MaxRetries {
			break
		}

		c.log.Debug("retrying operation",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff = min(time.Duration(float64(backoff)*c.config.BackoffFactor), c.config.MaxBackoff)
		}
	}

	return NewConnectionError("operation failed after retries", false, lastErr)
}

// isRetryableError determines if an error should be retried.
func (c *client) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if retryable, ok := err.(RetryableError); ok {
		return retryable.IsRetryable()
	}

	if ldap.IsErrorWithCode(err, ldap.LDAPResultBusy) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultUnavailable) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultServerDown) ||
		ldap.IsErrorWithCode(err, ldap.LDAPResultOperationsError) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset")
}

// logError logs LDAP-specific error information for a failed request.
func (c *client) logError(operation string, err error, req *SearchRequest) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.Error(err),
	}

	if req != nil {
		fields = append(fields,
			zap.String("base_dn", req.BaseDN),
			zap.String("filter", req.Filter),
			zap.String("scope", req.Scope.String()))
	}

	if ldapErr, ok := err.(*ldap.Error); ok {
		fields = append(fields, zap.Uint16("ldap_result_code", ldapErr.ResultCode))
	}

	c.log.Error("LDAP operation failed", fields...)
}
