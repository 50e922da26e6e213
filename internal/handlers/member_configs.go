package handlers

import (
	"context"
	"fmt"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"wg-vpn-service/internal/models"
	"wg-vpn-service/pkg/backendclient"
)

// Callback data prefixes. Peer client ids never appear here, only short-lived
// tokens from the CallbackTokenService.
const (
	cbAddDevice      = "cfg:add"
	cbRefreshConfigs = "cfg:refresh"
	cbDownloadPrefix = "cfg:dl:"
	cbQRPrefix       = "cfg:qr:"
	cbRevokePrefix   = "cfg:rv:"
	cbRefreshDevices = "dev:refresh"
	cbBuyPrefix      = "buy:"
)

// handleConfigs shows the config list with per-peer actions
func (h *MemberHandler) handleConfigs(c telebot.Context) error {
	peers, err := h.backend.ListPeers(context.Background(), c.Sender().ID)
	if err != nil {
		h.logger.Errorf("Failed to list peers: %v", err)
		return h.sendTextMessage(c, h.errorText(err), nil)
	}

	text, markup := h.buildConfigsView(peers)
	return h.sendTextMessage(c, text, markup)
}

// handleDevices shows a numbered device list with revoke buttons
func (h *MemberHandler) handleDevices(c telebot.Context) error {
	peers, err := h.backend.ListPeers(context.Background(), c.Sender().ID)
	if err != nil {
		h.logger.Errorf("Failed to list peers: %v", err)
		return h.sendTextMessage(c, h.errorText(err), nil)
	}

	active := activePeers(peers)
	if len(active) == 0 {
		return h.sendTextMessage(c, "📱 You have no devices yet. Add one via the configs menu.", h.createReturnKeyboard())
	}

	var sb strings.Builder
	sb.WriteString("📱 <b>Your devices</b>\n")
	markup := &telebot.ReplyMarkup{}
	var rows [][]telebot.InlineButton
	for i, peer := range active {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, peer.ClientName, peer.LocationName))
		token := h.tokenService.Register(peer.WgClientID)
		rows = append(rows, []telebot.InlineButton{
			{Text: fmt.Sprintf("🗑 Revoke %d. %s", i+1, peer.ClientName), Data: cbRevokePrefix + token},
		})
	}
	rows = append(rows, []telebot.InlineButton{{Text: "🔄 Refresh", Data: cbRefreshDevices}})
	markup.InlineKeyboard = rows

	return h.sendTextMessage(c, sb.String(), markup)
}

// handleCallback dispatches inline keyboard taps
func (h *MemberHandler) handleCallback(c telebot.Context) error {
	data := strings.TrimSpace(strings.TrimPrefix(c.Callback().Data, "\f"))

	switch {
	case data == cbAddDevice:
		return h.callbackAddDevice(c)
	case data == cbRefreshConfigs:
		if err := c.Respond(&telebot.CallbackResponse{}); err != nil {
			h.logger.Debugf("Callback respond failed: %v", err)
		}
		return h.handleConfigs(c)
	case data == cbRefreshDevices:
		if err := c.Respond(&telebot.CallbackResponse{}); err != nil {
			h.logger.Debugf("Callback respond failed: %v", err)
		}
		return h.handleDevices(c)
	case strings.HasPrefix(data, cbDownloadPrefix):
		return h.callbackDownload(c, strings.TrimPrefix(data, cbDownloadPrefix))
	case strings.HasPrefix(data, cbQRPrefix):
		return h.callbackQR(c, strings.TrimPrefix(data, cbQRPrefix))
	case strings.HasPrefix(data, cbRevokePrefix):
		return h.callbackRevoke(c, strings.TrimPrefix(data, cbRevokePrefix))
	case strings.HasPrefix(data, cbBuyPrefix):
		return h.callbackBuy(c, strings.TrimPrefix(data, cbBuyPrefix))
	default:
		h.logger.Warnf("Unknown callback data: %q", data)
		return c.Respond(&telebot.CallbackResponse{Text: "Unknown action, refresh the list.", ShowAlert: true})
	}
}

// callbackAddDevice provisions a new device config
func (h *MemberHandler) callbackAddDevice(c telebot.Context) error {
	userID := c.Sender().ID

	peers, err := h.backend.ListPeers(context.Background(), userID)
	if err != nil {
		h.logger.Errorf("Failed to list peers: %v", err)
		return c.Respond(&telebot.CallbackResponse{Text: h.errorText(err), ShowAlert: true})
	}

	active := activePeers(peers)
	limit := h.config.VPN.MaxConfigsPerUser
	if limit > 0 && len(active) >= limit {
		return c.Respond(&telebot.CallbackResponse{
			Text:      fmt.Sprintf("Device limit reached (%d). Revoke one first.", limit),
			ShowAlert: true,
		})
	}

	if err := c.Respond(&telebot.CallbackResponse{Text: "Provisioning..."}); err != nil {
		h.logger.Debugf("Callback respond failed: %v", err)
	}

	profile := h.profileFromSender(c)
	deviceName := h.deviceNameFor(c.Sender().FirstName, userID, len(active)+1)
	peer, err := h.backend.CreatePeer(context.Background(), backendclient.CreatePeerParams{
		TelegramID: userID,
		Username:   profile.Username,
		FirstName:  profile.FirstName,
		DeviceName: deviceName,
	})
	if err != nil {
		h.logger.Errorf("Failed to create peer: %v", err)
		return h.sendTextMessage(c, h.errorText(err), nil)
	}

	if err := h.sendConfigDocument(c, peer.ClientName, peer.Config); err != nil {
		return err
	}
	return h.handleConfigs(c)
}

// callbackDownload resends the .conf for a peer
func (h *MemberHandler) callbackDownload(c telebot.Context, token string) error {
	peer, err := h.resolvePeerConfig(c, token)
	if err != nil || peer == nil {
		return err
	}
	if err := c.Respond(&telebot.CallbackResponse{}); err != nil {
		h.logger.Debugf("Callback respond failed: %v", err)
	}
	return h.sendConfigDocument(c, peer.ClientName, peer.Config)
}

// callbackQR sends the config as a QR code
func (h *MemberHandler) callbackQR(c telebot.Context, token string) error {
	peer, err := h.resolvePeerConfig(c, token)
	if err != nil || peer == nil {
		return err
	}
	if err := c.Respond(&telebot.CallbackResponse{}); err != nil {
		h.logger.Debugf("Callback respond failed: %v", err)
	}
	return h.sendConfigQR(c, peer.ClientName, peer.Config)
}

// callbackRevoke deletes a device
func (h *MemberHandler) callbackRevoke(c telebot.Context, token string) error {
	clientID, ok := h.tokenService.Resolve(token)
	if !ok {
		return c.Respond(&telebot.CallbackResponse{Text: "This list is stale, refresh it.", ShowAlert: true})
	}

	if err := h.backend.RevokePeer(context.Background(), c.Sender().ID, clientID); err != nil {
		h.logger.Errorf("Failed to revoke peer: %v", err)
		return c.Respond(&telebot.CallbackResponse{Text: h.errorText(err), ShowAlert: true})
	}

	if err := c.Respond(&telebot.CallbackResponse{Text: "Device revoked."}); err != nil {
		h.logger.Debugf("Callback respond failed: %v", err)
	}
	return h.handleConfigs(c)
}

// resolvePeerConfig exchanges a callback token for a fresh config
func (h *MemberHandler) resolvePeerConfig(c telebot.Context, token string) (*backendclient.PeerConfig, error) {
	clientID, ok := h.tokenService.Resolve(token)
	if !ok {
		return nil, c.Respond(&telebot.CallbackResponse{Text: "This list is stale, refresh it.", ShowAlert: true})
	}

	peer, err := h.backend.PeerConfig(context.Background(), c.Sender().ID, clientID)
	if err != nil {
		h.logger.Errorf("Failed to fetch peer config: %v", err)
		return nil, c.Respond(&telebot.CallbackResponse{Text: h.errorText(err), ShowAlert: true})
	}
	return peer, nil
}

// buildConfigsView renders the config list and its inline keyboard
func (h *MemberHandler) buildConfigsView(peers []models.VpnPeer) (string, *telebot.ReplyMarkup) {
	active := activePeers(peers)

	markup := &telebot.ReplyMarkup{}
	var rows [][]telebot.InlineButton

	text := "🔐 <b>WireGuard configs</b>\n"
	if len(active) == 0 {
		text += "\nNo devices yet, add your first one."
	}
	for i, peer := range active {
		text += fmt.Sprintf("\n%d. %s — %s", i+1, peer.ClientName, peer.LocationName)
		token := h.tokenService.Register(peer.WgClientID)
		rows = append(rows, []telebot.InlineButton{
			{Text: fmt.Sprintf("⬇️ %d", i+1), Data: cbDownloadPrefix + token},
			{Text: fmt.Sprintf("📷 %d", i+1), Data: cbQRPrefix + token},
			{Text: fmt.Sprintf("🗑 %d", i+1), Data: cbRevokePrefix + token},
		})
	}
	rows = append(rows, []telebot.InlineButton{
		{Text: "➕ Add Device", Data: cbAddDevice},
		{Text: "🔄 Refresh", Data: cbRefreshConfigs},
	})
	markup.InlineKeyboard = rows

	return text, markup
}

// deviceNameFor builds the next device name for a user. Profile names that
// still fail validation after sanitizing fall back to a neutral base.
func (h *MemberHandler) deviceNameFor(firstName string, telegramID int64, n int) string {
	base := firstName
	if base == "" {
		base = "user"
	}
	base = strings.Map(func(r rune) rune {
		if r == ' ' || r == ':' || r == '/' {
			return '_'
		}
		return r
	}, base)

	name := fmt.Sprintf("%s_%d_%d", base, telegramID, n)
	if err := h.validator.ValidateDeviceName(name); err != nil {
		h.logger.Debugf("Device name %q rejected, using fallback: %v", name, err)
		name = fmt.Sprintf("user_%d_%d", telegramID, n)
	}
	return name
}

func activePeers(peers []models.VpnPeer) []models.VpnPeer {
	active := make([]models.VpnPeer, 0, len(peers))
	for _, peer := range peers {
		if peer.IsActive {
			active = append(active, peer)
		}
	}
	return active
}
