package opc

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/id"
	"github.com/gopcua/opcua/ua"
)

// DialConfig holds the connection parameters for one server.
type DialConfig struct {
	Endpoint        string
	SecurityPolicy  string
	SecurityMode    string
	Username        string
	Password        string
	PublishInterval time.Duration
}

// securityPolicyURI maps a settings-file policy name to its URI.
// Unknown or empty names fall back to no security, matching the
// behavior users expect from a read-mostly diagnostic tool.
var securityPolicyURIs = map[string]string{
	"none":                ua.SecurityPolicyURINone,
	"basic256sha256":      ua.SecurityPolicyURIBasic256Sha256,
	"aes128sha256rsaoaep": ua.SecurityPolicyURIAes128Sha256RsaOaep,
	"aes256sha256rsapss":  ua.SecurityPolicyURIAes256Sha256RsaPss,
}

func securityPolicyURI(name string) string {
	if uri, ok := securityPolicyURIs[normalize(name)]; ok {
		return uri
	}
	return ua.SecurityPolicyURINone
}

func securityMode(name string) ua.MessageSecurityMode {
	switch normalize(name) {
	case "sign":
		return ua.MessageSecurityModeSign
	case "signandencrypt":
		return ua.MessageSecurityModeSignAndEncrypt
	default:
		return ua.MessageSecurityModeNone
	}
}

func normalize(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			b = append(b, c+('a'-'A'))
		case c == '_' || c == '-' || c == ' ':
			// dropped
		default:
			b = append(b, c)
		}
	}
	return string(b)
}

func clientOptions(cfg DialConfig) []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityPolicy(securityPolicyURI(cfg.SecurityPolicy)),
		opcua.SecurityMode(securityMode(cfg.SecurityMode)),
	}
	if cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(cfg.Username, cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

// Dial connects to the endpoint and returns a ready Client.
func Dial(ctx context.Context, cfg DialConfig) (Client, error) {
	c, err := opcua.NewClient(cfg.Endpoint, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("new client for %s: %w", cfg.Endpoint, err)
	}
	if err := c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Endpoint, err)
	}
	interval := cfg.PublishInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &gopcuaClient{client: c, interval: interval}, nil
}

type gopcuaClient struct {
	client   *opcua.Client
	interval time.Duration
}

func (g *gopcuaClient) Close(ctx context.Context) error {
	return g.client.Close(ctx)
}

func (g *gopcuaClient) node(nid NodeID) (*opcua.Node, error) {
	parsed, err := ua.ParseNodeID(string(nid))
	if err != nil {
		return nil, fmt.Errorf("parse node id %q: %w", nid, err)
	}
	return g.client.Node(parsed), nil
}

func (g *gopcuaClient) BrowseChildren(ctx context.Context, nid NodeID) ([]BrowseItem, error) {
	n, err := g.node(nid)
	if err != nil {
		return nil, err
	}
	children, err := n.Children(ctx, id.HierarchicalReferences, ua.NodeClassAll)
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", nid, err)
	}
	items := make([]BrowseItem, 0, len(children))
	for _, child := range children {
		label := child.ID.String()
		if dn, err := child.DisplayName(ctx); err == nil && dn.Text != "" {
			label = dn.Text
		}
		items = append(items, BrowseItem{Label: label, ID: NodeID(child.ID.String())})
	}
	return items, nil
}

func (g *gopcuaClient) NodeClass(ctx context.Context, nid NodeID) (NodeClass, error) {
	n, err := g.node(nid)
	if err != nil {
		return ClassOther, err
	}
	nc, err := n.NodeClass(ctx)
	if err != nil {
		return ClassOther, fmt.Errorf("read node class of %s: %w", nid, err)
	}
	return fromWireClass(nc), nil
}

func fromWireClass(nc ua.NodeClass) NodeClass {
	switch nc {
	case ua.NodeClassObject:
		return ClassObject
	case ua.NodeClassVariable:
		return ClassVariable
	case ua.NodeClassMethod:
		return ClassMethod
	default:
		return ClassOther
	}
}

// Attributes reads the per-class attribute set. A failed individual read
// renders as an empty value; only a failed class read aborts, since the
// class decides which attributes exist at all.
func (g *gopcuaClient) Attributes(ctx context.Context, nid NodeID) ([]AttributeRow, error) {
	n, err := g.node(nid)
	if err != nil {
		return nil, err
	}
	wireClass, err := n.NodeClass(ctx)
	if err != nil {
		return nil, fmt.Errorf("read node class of %s: %w", nid, err)
	}
	class := fromWireClass(wireClass)

	rows := []AttributeRow{
		{Name: "NodeId", Value: string(nid)},
		{Name: "NodeClass", Value: class.String()},
		{Name: "BrowseName", Value: g.attrString(ctx, n, ua.AttributeIDBrowseName)},
		{Name: "DisplayName", Value: g.attrString(ctx, n, ua.AttributeIDDisplayName)},
	}

	switch class {
	case ClassVariable:
		rows = append(rows,
			AttributeRow{Name: "DataType", Value: g.attrString(ctx, n, ua.AttributeIDDataType)},
			AttributeRow{Name: "Value", Value: g.attrString(ctx, n, ua.AttributeIDValue)},
			AttributeRow{Name: "AccessLevel", Value: g.attrString(ctx, n, ua.AttributeIDAccessLevel)},
		)
		if desc := g.attrString(ctx, n, ua.AttributeIDDescription); desc != "" {
			rows = append(rows, AttributeRow{Name: "Description", Value: desc})
		}
	case ClassMethod:
		rows = append(rows,
			AttributeRow{Name: "Executable", Value: g.attrString(ctx, n, ua.AttributeIDExecutable)},
			AttributeRow{Name: "UserExecutable", Value: g.attrString(ctx, n, ua.AttributeIDUserExecutable)},
		)
	case ClassObject, ClassOther:
		// common attributes only
	}
	return rows, nil
}

func (g *gopcuaClient) attrString(ctx context.Context, n *opcua.Node, attr ua.AttributeID) string {
	values, err := n.Attributes(ctx, attr)
	if err != nil || len(values) == 0 || values[0] == nil {
		return ""
	}
	return renderDataValue(values[0])
}

func renderDataValue(dv *ua.DataValue) string {
	if dv == nil || dv.Value == nil {
		return ""
	}
	v := dv.Value.Value()
	switch t := v.(type) {
	case *ua.LocalizedText:
		return t.Text
	case *ua.QualifiedName:
		return t.Name
	case *ua.NodeID:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

type gopcuaSubscription struct {
	sub    *opcua.Subscription
	cancel context.CancelFunc
}

func (s *gopcuaSubscription) Cancel(ctx context.Context) error {
	s.cancel()
	return s.sub.Cancel(ctx)
}

func (g *gopcuaClient) Subscribe(ctx context.Context, nid NodeID, notify NotifyFunc) (Subscription, error) {
	n, err := g.node(nid)
	if err != nil {
		return nil, err
	}

	// Metadata is read once up front; notifications only carry the value
	// and timestamps, so the display name and data type ride along from
	// here.
	displayName := string(nid)
	if dn, err := n.DisplayName(ctx); err == nil && dn.Text != "" {
		displayName = dn.Text
	}
	dataType := g.attrString(ctx, n, ua.AttributeIDDataType)

	// Deliver the current value through the same path live changes take,
	// so the table shows a row before the first real change arrives.
	if initial, ok := g.readInitial(ctx, n, nid, displayName, dataType); ok {
		notify(initial)
	}

	notifyCh := make(chan *opcua.PublishNotificationData, 16)
	sub, err := g.client.Subscribe(ctx, &opcua.SubscriptionParameters{Interval: g.interval}, notifyCh)
	if err != nil {
		return nil, fmt.Errorf("create subscription for %s: %w", nid, err)
	}
	req := opcua.NewMonitoredItemCreateRequestWithDefaults(n.ID, ua.AttributeIDValue, 1)
	res, err := sub.Monitor(ctx, ua.TimestampsToReturnBoth, req)
	if err != nil {
		sub.Cancel(ctx)
		return nil, fmt.Errorf("monitor %s: %w", nid, err)
	}
	if len(res.Results) > 0 && res.Results[0].StatusCode != ua.StatusOK {
		sub.Cancel(ctx)
		return nil, fmt.Errorf("monitor %s: status %v", nid, res.Results[0].StatusCode)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	go pump(pumpCtx, notifyCh, nid, displayName, dataType, notify)
	return &gopcuaSubscription{sub: sub, cancel: cancel}, nil
}

func (g *gopcuaClient) readInitial(ctx context.Context, n *opcua.Node, nid NodeID, displayName, dataType string) (Notification, bool) {
	req := &ua.ReadRequest{
		NodesToRead: []*ua.ReadValueID{
			{NodeID: n.ID, AttributeID: ua.AttributeIDValue},
		},
		TimestampsToReturn: ua.TimestampsToReturnBoth,
	}
	resp, err := g.client.Read(ctx, req)
	if err != nil || len(resp.Results) == 0 {
		// The subscription still delivers values; this only delays the
		// first row until the server publishes.
		return Notification{}, false
	}
	dv := resp.Results[0]
	return Notification{
		ID:              nid,
		DisplayName:     displayName,
		Value:           renderDataValue(dv),
		DataType:        dataType,
		SourceTimestamp: sourceTime(dv),
		Initial:         true,
	}, true
}

func sourceTime(dv *ua.DataValue) time.Time {
	if dv == nil {
		return time.Now()
	}
	if !dv.SourceTimestamp.IsZero() {
		return dv.SourceTimestamp
	}
	if !dv.ServerTimestamp.IsZero() {
		return dv.ServerTimestamp
	}
	return time.Now()
}

// pump drains publish notifications for one subscription and forwards
// data changes. A single goroutine per subscription keeps per-node
// delivery order intact.
func pump(ctx context.Context, ch <-chan *opcua.PublishNotificationData, nid NodeID, displayName, dataType string, notify NotifyFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case pn, ok := <-ch:
			if !ok {
				return
			}
			if pn.Error != nil {
				log.Printf("subscription %s: publish error: %v", nid, pn.Error)
				continue
			}
			dcn, ok := pn.Value.(*ua.DataChangeNotification)
			if !ok {
				continue
			}
			for _, item := range dcn.MonitoredItems {
				notify(Notification{
					ID:              nid,
					DisplayName:     displayName,
					Value:           renderDataValue(item.Value),
					DataType:        dataType,
					SourceTimestamp: sourceTime(item.Value),
				})
			}
		}
	}
}
