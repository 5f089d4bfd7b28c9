package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	CTL service engine.
 *
 * Description:	CTL runs the control channel: synchronize, set the
 *		link data format, and allocate/release client ids for
 *		the other services.  CTL always uses client id 0.
 *
 *		The startup sequence lives here:
 *
 *			SYNC -> SET_DATA_FORMAT -> GET_CID x3
 *
 *		and once all three CIDs are in, the other services are
 *		fanned out via their on_startup hooks.
 *
 *---------------------------------------------------------------*/

import (
	"encoding/binary"
)

type ctl_service struct{}

func (ctl_service) service_type() uint8 {
	return QMI_SERVICE_CTL
}

func (ctl_service) on_startup(qmid *qmi_device) {
}

func (ctl_service) on_shutdown(qmid *qmi_device) {
}

/*
 * The request was created with the current counter value; advance it
 * now that the frame is going out.
 */

func qmi_ctl_write(qmid *qmi_device, req *qmi_request) error {
	next_transaction_8(&qmid.ctl_transaction_id)

	return qmi_helpers_write(qmid, req.bytes())
}

func qmi_ctl_send_sync(qmid *qmi_device) error {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Sending sync request")
	}

	var req = create_qmi_request(QMI_SERVICE_CTL, 0,
		uint16(qmid.ctl_transaction_id), QMI_CTL_SYNC)

	return qmi_ctl_write(qmid, req)
}

func qmi_ctl_send_data_format(qmid *qmi_device) error {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Sending set data format request")
	}

	var req = create_qmi_request(QMI_SERVICE_CTL, 0,
		uint16(qmid.ctl_transaction_id), QMI_CTL_SET_DATA_FORMAT)

	/* No QoS header, raw IP.  Values fetched from
	 * windows_telenor_qmi. */
	req.add_tlv(QMI_CTL_TLV_DATA_FORMAT, tlv_uint8(0))
	req.add_tlv(QMI_CTL_TLV_DATA_PROTO, tlv_uint16(0x0001))

	return qmi_ctl_write(qmid, req)
}

/*-------------------------------------------------------------------
 *
 * Name:	qmi_ctl_update_cid
 *
 * Purpose:	Request or release a client id for a service.
 *
 * Inputs:	service	- QMI_SERVICE_*
 *		release	- false to allocate, true to release.
 *		cid	- Only meaningful for release.
 *
 * Description:	The ALLOC_INFO TLV carries one byte (the service) on
 *		allocation and the 16 bit word (cid << 8) | service on
 *		release.
 *
 *---------------------------------------------------------------*/

func qmi_ctl_update_cid(qmid *qmi_device, service uint8, release bool, cid uint8) error {
	var message uint16 = QMI_CTL_GET_CID
	if release {
		message = QMI_CTL_RELEASE_CID
	}

	var req = create_qmi_request(QMI_SERVICE_CTL, 0,
		uint16(qmid.ctl_transaction_id), message)

	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		if release {
			qmid_log.Debug("Releasing CID", "service", qmi_service_names[service], "cid", cid)
		} else {
			qmid_log.Debug("Requesting CID", "service", qmi_service_names[service])
		}
	}

	if release {
		req.add_tlv(QMI_CTL_TLV_ALLOC_INFO, tlv_uint16(uint16(cid)<<8|uint16(service)))
	} else {
		req.add_tlv(QMI_CTL_TLV_ALLOC_INFO, tlv_uint8(service))
	}

	var err = qmi_ctl_write(qmid, req)
	if err != nil && qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Error("Failed to send CID request", "service", qmi_service_names[service], "err", err)
	}

	return err
}

func qmi_ctl_request_cid(qmid *qmi_device) qmi_msg_status {
	if qmi_ctl_update_cid(qmid, QMI_SERVICE_NAS, false, 0) != nil {
		return QMI_MSG_FAILURE
	}

	if qmi_ctl_update_cid(qmid, QMI_SERVICE_WDS, false, 0) != nil {
		return QMI_MSG_FAILURE
	}

	if qmi_ctl_update_cid(qmid, QMI_SERVICE_DMS, false, 0) != nil {
		return QMI_MSG_FAILURE
	}

	return QMI_MSG_SUCCESS
}

/*
 * Sync replies.  The modem is known to emit spontaneous SYNC frames;
 * ours is the one with transaction id 1 (the first id we ever use),
 * everything else is ignored, as is anything after we are synced.
 */

func qmi_ctl_handle_sync_reply(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Received SYNC reply")
	}

	if frame.transaction != 1 || qmid.ctl_state == CTL_SYNCED {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
			qmid_log.Debug("Ignoring sync packet from modem",
				"transaction", frame.transaction, "state", qmid.ctl_state)
		}
		return QMI_MSG_IGNORE
	}

	var result, _, ok = frame.result()
	if !ok || result == QMI_RESULT_FAILURE {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Error("Sync operation failed")
		}
		return QMI_MSG_FAILURE
	}

	qmid.ctl_state = CTL_SYNCED
	session_log_write("sync", "control channel synchronized")

	/* This can be viewed as the proper start of the dialer. */
	if qmi_ctl_send_data_format(qmid) != nil {
		return QMI_MSG_FAILURE
	}

	return QMI_MSG_SUCCESS
}

func qmi_ctl_handle_data_format(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	var result, _, ok = frame.result()
	if !ok || result == QMI_RESULT_FAILURE {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Error("Could not set data format")
		}
		return QMI_MSG_FAILURE
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		if proto := find_tlv(frame.tlvs[1:], QMI_CTL_TLV_DATA_PROTO); len(proto) >= 2 {
			qmid_log.Debug("Data format set", "proto", binary.LittleEndian.Uint16(proto))
		}
	}

	return qmi_ctl_request_cid(qmid)
}

/*-------------------------------------------------------------------
 *
 * Name:	qmi_ctl_handle_cid_reply
 *
 * Purpose:	Process a GET_CID or RELEASE_CID reply.
 *
 * Description:	A GET_CID reply has two TLVs, the result and the
 *		(service, cid) pair.  The cid is stored in the session
 *		slot for its service and the service state advances to
 *		GOT_CID.  When the third CID arrives the startup
 *		orchestration fans out: DMS (PIN verify or skip), then
 *		WDS (autoconnect), then NAS (system selection).
 *
 *		RELEASE_CID replies only show up during teardown;
 *		failures there are logged and ignored.
 *
 *---------------------------------------------------------------*/

func qmi_ctl_handle_cid_reply(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	var result, _, ok = frame.result()

	if frame.message == QMI_CTL_RELEASE_CID {
		if !ok || result == QMI_RESULT_FAILURE {
			if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
				qmid_log.Warn("Failed to release CID")
			}
		}
		return QMI_MSG_IGNORE
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Received CID reply")
	}

	if !ok || result == QMI_RESULT_FAILURE {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Error("Failed to get a CID")
		}
		return QMI_MSG_FAILURE
	}

	var alloc = find_tlv(frame.tlvs[1:], QMI_CTL_TLV_ALLOC_INFO)
	if len(alloc) < 2 {
		return QMI_MSG_FAILURE
	}

	var service = alloc[0]
	var cid = alloc[1]

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Got CID", "service", qmi_service_names[service], "cid", cid)
	}

	switch service {
	case QMI_SERVICE_DMS:
		qmid.dms_id = cid
		qmid.dms_state = DMS_GOT_CID
		qmid.ctl_num_cids++
	case QMI_SERVICE_WDS:
		qmid.wds_id = cid
		qmid.wds_state = WDS_GOT_CID
		qmid.ctl_num_cids++
	case QMI_SERVICE_NAS:
		qmid.nas_id = cid
		qmid.nas_state = NAS_GOT_CID
		qmid.ctl_num_cids++
	default:
		if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
			qmid_log.Debug("CID for service not handled by qmid", "service", service)
		}
		return QMI_MSG_IGNORE
	}

	session_log_write("cid", "allocated %s cid %d", qmi_service_names[service], cid)

	/* Only start sending when all CIDs are in. */
	if qmid.ctl_num_cids == QMID_NUM_SERVICES {
		for _, svc := range []uint8{QMI_SERVICE_DMS, QMI_SERVICE_WDS, QMI_SERVICE_NAS} {
			qmi_services[svc].on_startup(qmid)
		}
	}

	return QMI_MSG_SUCCESS
}

func (ctl_service) handle_msg(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	switch frame.message {
	case QMI_CTL_GET_CID, QMI_CTL_RELEASE_CID:
		/* Do not set any values unless we are synced. */
		if qmid.ctl_state == CTL_NOT_SYNCED {
			return QMI_MSG_IGNORE
		}

		return qmi_ctl_handle_cid_reply(qmid, frame)
	case QMI_CTL_SYNC:
		return qmi_ctl_handle_sync_reply(qmid, frame)
	case QMI_CTL_SET_DATA_FORMAT:
		return qmi_ctl_handle_data_format(qmid, frame)
	default:
		if qmid_verbose_logging >= QMID_LOG_LEVEL_3 {
			qmid_log.Debug("Unknown CTL message", "message", frame.message)
		}
		return QMI_MSG_IGNORE
	}
}
