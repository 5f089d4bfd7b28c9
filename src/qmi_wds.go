package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	WDS service engine.
 *
 * Description:	WDS owns the packet data session.  At startup it
 *		enables autoconnect so the modem re-establishes the
 *		session across technology changes on its own.  The
 *		explicit START/STOP_NETWORK_INTERFACE exchanges are
 *		driven by NAS service edges and by teardown.
 *
 *		State machine:
 *
 *		GOT_CID -> AUTOCONNECT_SET -> CONNECTING -> CONNECTED
 *		                  ^                             |
 *		                  +-------- DISCONNECTING <-----+
 *
 *		A successful start hands back the 32 bit packet data
 *		handle; it is required to stop that session later and
 *		nonzero exactly while a session is up.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/binary"
)

type wds_service struct{}

func (wds_service) service_type() uint8 {
	return QMI_SERVICE_WDS
}

func (wds_service) on_startup(qmid *qmi_device) {
	qmi_wds_send(qmid)
}

/* Teardown contribution: kill autoconnect, then the session. */
func (wds_service) on_shutdown(qmid *qmi_device) {
	/* Never went as far as getting a CID, nothing to undo. */
	if qmid.wds_id == 0 {
		return
	}

	qmi_wds_send_update_autoconnect(qmid, 0)

	/* Beware that some modems, for example MF821D, seem to return
	 * NoEffect here. */
	if qmid.pkt_data_handle != 0 {
		qmid.cur_service = NO_SERVICE
		qmi_wds_disconnect(qmid)
	}
}

func qmi_wds_write(qmid *qmi_device, req *qmi_request) error {
	next_transaction_16(&qmid.wds_transaction_id)

	return qmi_helpers_write(qmid, req.bytes())
}

func qmi_wds_send_update_autoconnect(qmid *qmi_device, enable uint8) error {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Updating autoconnect", "enable", enable)
	}

	var req = create_qmi_request(QMI_SERVICE_WDS, qmid.wds_id,
		qmid.wds_transaction_id, QMI_WDS_SET_AUTOCONNECT)
	req.add_tlv(QMI_WDS_TLV_AUTOCONNECT, tlv_uint8(enable))

	return qmi_wds_write(qmid, req)
}

func qmi_wds_send_start_network_interface(qmid *qmi_device) error {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Starting network interface")
	}

	var req = create_qmi_request(QMI_SERVICE_WDS, qmid.wds_id,
		qmid.wds_transaction_id, QMI_WDS_START_NETWORK_INTERFACE)

	qmid.wds_state = WDS_CONNECTING

	return qmi_wds_write(qmid, req)
}

func qmi_wds_send_stop_network_interface(qmid *qmi_device) error {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Stopping network interface", "handle", qmid.pkt_data_handle)
	}

	var req = create_qmi_request(QMI_SERVICE_WDS, qmid.wds_id,
		qmid.wds_transaction_id, QMI_WDS_STOP_NETWORK_INTERFACE)
	req.add_tlv(QMI_WDS_TLV_PKT_DATA_HANDLE, tlv_uint32(qmid.pkt_data_handle))

	qmid.wds_state = WDS_DISCONNECTING

	return qmi_wds_write(qmid, req)
}

/*
 * Startup entry, called once all CIDs are in.
 */

func qmi_wds_send(qmid *qmi_device) {
	if qmid.wds_state == WDS_GOT_CID {
		qmi_wds_send_update_autoconnect(qmid, 1)
	}
}

/*-------------------------------------------------------------------
 *
 * Name:	qmi_wds_update_connect
 *
 * Purpose:	React to a NAS service edge.
 *
 * Description:	Service appeared and no session is up: start one.
 *		Service gone while a session is live: stop it, quoting
 *		the stored packet data handle.
 *
 *---------------------------------------------------------------*/

func qmi_wds_update_connect(qmid *qmi_device) {
	if qmid.cur_service != NO_SERVICE {
		if qmid.wds_state == WDS_AUTOCONNECT_SET || qmid.wds_state == WDS_GOT_CID {
			qmi_wds_send_start_network_interface(qmid)
		}
	} else if qmid.pkt_data_handle != 0 {
		qmi_wds_send_stop_network_interface(qmid)
	}
}

/* Explicit disconnect, used by teardown. */
func qmi_wds_disconnect(qmid *qmi_device) {
	qmi_wds_send_stop_network_interface(qmid)
}

func qmi_wds_handle_autoconnect(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	var result, _, ok = frame.result()
	if !ok || result == QMI_RESULT_FAILURE {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Error("Could not update autoconnect")
		}
		return QMI_MSG_FAILURE
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Autoconnect updated")
	}

	if qmid.wds_state == WDS_GOT_CID {
		qmid.wds_state = WDS_AUTOCONNECT_SET

		/* NAS may already have seen service before autoconnect
		 * was acknowledged. */
		qmi_wds_update_connect(qmid)
	}

	return QMI_MSG_SUCCESS
}

func qmi_wds_handle_start_reply(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	var result, _, ok = frame.result()
	if !ok || result == QMI_RESULT_FAILURE {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Error("Could not start network interface")
		}
		return QMI_MSG_FAILURE
	}

	var handle = find_tlv(frame.tlvs[1:], QMI_WDS_TLV_PKT_DATA_HANDLE)
	if len(handle) < 4 {
		return QMI_MSG_FAILURE
	}

	qmid.pkt_data_handle = binary.LittleEndian.Uint32(handle)
	qmid.wds_state = WDS_CONNECTED

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Network interface started", "handle", qmid.pkt_data_handle)
	}

	session_log_write("connect", "packet data handle %#x", qmid.pkt_data_handle)

	return QMI_MSG_SUCCESS
}

func qmi_wds_handle_stop_reply(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	var result, errcode, ok = frame.result()
	if !ok {
		return QMI_MSG_FAILURE
	}

	/* NoEffect counts as disconnected. */
	if result == QMI_RESULT_FAILURE && errcode != QMI_ERR_NO_EFFECT {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Error("Could not stop network interface", "error", errcode)
		}
		return QMI_MSG_FAILURE
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Network interface stopped")
	}

	qmid.pkt_data_handle = 0
	qmid.wds_state = WDS_AUTOCONNECT_SET

	session_log_write("disconnect", "session stopped")

	return QMI_MSG_SUCCESS
}

/*
 * Connection status reports start arriving once autoconnect is
 * active.  They are informational here; session control follows the
 * NAS service edges.
 */

func qmi_wds_handle_pkt_srvc_status(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	var status = find_tlv(frame.tlvs, QMI_WDS_TLV_PKT_STATUS)
	if len(status) < 1 {
		return QMI_MSG_IGNORE
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Packet service status", "status", status[0])
	}

	session_log_write("pkt_status", "status %d", status[0])

	return QMI_MSG_SUCCESS
}

func (wds_service) handle_msg(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	switch frame.message {
	case QMI_WDS_SET_AUTOCONNECT:
		return qmi_wds_handle_autoconnect(qmid, frame)
	case QMI_WDS_START_NETWORK_INTERFACE:
		return qmi_wds_handle_start_reply(qmid, frame)
	case QMI_WDS_STOP_NETWORK_INTERFACE:
		return qmi_wds_handle_stop_reply(qmid, frame)
	case QMI_WDS_GET_PKT_SRVC_STATUS:
		return qmi_wds_handle_pkt_srvc_status(qmid, frame)
	default:
		if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
			qmid_log.Debug("Unknown WDS message", "message", frame.message)
		}
		return QMI_MSG_IGNORE
	}
}
