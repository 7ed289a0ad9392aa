package natsx

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"SermoProject/logger"
	"SermoProject/tools/errs"
)

const broadcastSubject = "sermo.gateway.broadcast"

// Relay mirrors broadcast frames across gateway nodes over NATS core
// pub/sub. Each frame is tagged with the publishing gateway's ID so a node
// never re-delivers its own frames.
type Relay struct {
	nc        *nats.Conn
	gatewayID string
	sub       *nats.Subscription
}

type relayFrame struct {
	Gateway string          `json:"gw"`
	Payload json.RawMessage `json:"payload"`
}

func NewRelay(url, gatewayID string) (*Relay, error) {
	nc, err := nats.Connect(url,
		nats.Name("sermo-gateway-"+gatewayID),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "nats connect", "url", url)
	}
	return &Relay{nc: nc, gatewayID: gatewayID}, nil
}

// Publish sends one locally produced broadcast frame to the peers.
func (r *Relay) Publish(payload []byte) error {
	b, err := json.Marshal(relayFrame{Gateway: r.gatewayID, Payload: payload})
	if err != nil {
		return errs.Wrap(err)
	}
	return errs.WrapMsg(r.nc.Publish(broadcastSubject, b), "relay publish")
}

// Subscribe delivers peer frames through the callback. Own frames are
// dropped; undecodable ones are logged and dropped.
func (r *Relay) Subscribe(deliver func(payload []byte)) error {
	sub, err := r.nc.Subscribe(broadcastSubject, func(m *nats.Msg) {
		var f relayFrame
		if err := json.Unmarshal(m.Data, &f); err != nil {
			logger.Warnf("[relay] bad frame err=%v", err)
			return
		}
		if f.Gateway == r.gatewayID {
			return
		}
		deliver(f.Payload)
	})
	if err != nil {
		return errs.WrapMsg(err, "relay subscribe")
	}
	r.sub = sub
	return nil
}

func (r *Relay) Close() {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	if r.nc != nil {
		r.nc.Close()
	}
}
