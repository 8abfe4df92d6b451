package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/caerevents/pkg/events"
	"github.com/ssargent/caerevents/pkg/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handlePutPacket archives a packet sent in its binary wire form.
func (s *Server) handlePutPacket(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxPacketBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, fmt.Sprintf("Packet larger than %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	packet, err := events.UnmarshalSpecialEventPacket(body, events.WithDiagnostics(s.diag))
	if err != nil {
		sendError(w, fmt.Sprintf("Invalid packet: %v", err), http.StatusBadRequest)
		return
	}

	start := time.Now()
	id, err := s.store.Put(packet)
	s.metrics.RecordStoreOperation("put", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("failed to archive packet", zap.Error(err))
		sendError(w, fmt.Sprintf("Failed to store packet: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.ObservePacket(packet.Header())

	sendJSON(w, PutResponse{
		ID:          id.String(),
		EventNumber: packet.Header().EventNumber(),
		EventValid:  packet.Header().EventValid(),
	}, http.StatusCreated)
}

// handleListPackets lists stored ids, oldest first. ?source=N restricts
// the list to one producing device.
func (s *Server) handleListPackets(w http.ResponseWriter, r *http.Request) {
	var (
		ids []ksuid.KSUID
		err error
	)

	start := time.Now()
	if v := r.URL.Query().Get("source"); v != "" {
		source, perr := strconv.ParseInt(v, 10, 16)
		if perr != nil {
			sendError(w, "Invalid value for source", http.StatusBadRequest)
			return
		}
		ids, err = s.store.ListBySource(int16(source))
	} else {
		ids, err = s.store.List()
	}
	s.metrics.RecordStoreOperation("list", err == nil, time.Since(start))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list packets: %v", err), http.StatusInternalServerError)
		return
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	sendSuccess(w, map[string]interface{}{"ids": out, "count": len(out)})
}

// handleGetPacket returns a packet as JSON. With ?valid=true only the
// valid slots are listed.
func (s *Server) handleGetPacket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	onlyValid := false
	if v := r.URL.Query().Get("valid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			sendError(w, "Invalid value for valid", http.StatusBadRequest)
			return
		}
		onlyValid = b
	}

	start := time.Now()
	packet, err := s.store.Get(id)
	s.metrics.RecordStoreOperation("get", err == nil || errors.Is(err, storage.ErrNotFound), time.Since(start))
	if err != nil {
		s.sendStoreError(w, "get", err)
		return
	}

	sendSuccess(w, packetResponse(id, packet, onlyValid))
}

func (s *Server) handleGetRawPacket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	raw, err := s.store.GetRaw(id)
	s.metrics.RecordStoreOperation("get", err == nil || errors.Is(err, storage.ErrNotFound), time.Since(start))
	if err != nil {
		s.sendStoreError(w, "get", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleDeletePacket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	err := s.store.Delete(id)
	s.metrics.RecordStoreOperation("delete", err == nil || errors.Is(err, storage.ErrNotFound), time.Since(start))
	if err != nil {
		s.sendStoreError(w, "delete", err)
		return
	}

	sendSuccess(w, map[string]string{"status": "deleted", "id": id.String()})
}

func (s *Server) sendStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		sendError(w, "Packet not found", http.StatusNotFound)
		return
	}
	s.logger.Error("packet store operation failed", zap.String("operation", op), zap.Error(err))
	sendError(w, fmt.Sprintf("Failed to %s packet: %v", op, err), http.StatusInternalServerError)
}

func parseID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid packet id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

func packetResponse(id ksuid.KSUID, packet *events.SpecialEventPacket, onlyValid bool) PacketResponse {
	h := packet.Header()
	resp := PacketResponse{
		ID: id.String(),
		Header: HeaderResponse{
			EventType:       h.EventType(),
			EventSource:     h.EventSource(),
			EventSize:       h.EventSize(),
			EventTSOffset:   h.EventTSOffset(),
			EventTSOverflow: h.EventTSOverflow(),
			EventCapacity:   h.EventCapacity(),
			EventNumber:     h.EventNumber(),
			EventValid:      h.EventValid(),
		},
		Events: []EventResponse{},
	}

	for i := int32(0); i < packet.Capacity(); i++ {
		ev, err := packet.Event(i)
		if err != nil {
			break
		}
		if onlyValid && !ev.IsValid() {
			continue
		}
		resp.Events = append(resp.Events, EventResponse{
			Index:       i,
			Valid:       ev.IsValid(),
			Type:        uint8(ev.Type()),
			TypeName:    ev.Type().String(),
			Data:        ev.Data(),
			Timestamp:   ev.Timestamp(),
			Timestamp64: packet.Timestamp64(ev),
		})
	}
	return resp
}
