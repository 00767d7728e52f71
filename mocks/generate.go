package mocks

//go:generate mockgen -destination=./mock_broker.go -package=mocks github.com/rxtech-lab/ibkr-mcp-server/internal/broker Broker
