package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	NAS service engine.
 *
 * Description:	NAS watches the network side: set the system selection
 *		preference, register for SYS_INFO indications, and
 *		track which radio technology (if any) is serving us.
 *
 *		State machine:
 *
 *		GOT_CID -> SET_SYSTEM -> IND_REQ -> SYS_INFO_QUERY
 *
 *		after which the engine idles and SYS_INFO indications
 *		keep cur_service up to date.  WDS is poked whenever
 *		service is gained or lost; technology changes while
 *		service is held are left to autoconnect.
 *
 *---------------------------------------------------------------*/

type nas_service struct{}

func (nas_service) service_type() uint8 {
	return QMI_SERVICE_NAS
}

func (nas_service) on_startup(qmid *qmi_device) {
	qmi_nas_send(qmid)
}

func (nas_service) on_shutdown(qmid *qmi_device) {
}

func qmi_nas_write(qmid *qmi_device, req *qmi_request) error {
	next_transaction_16(&qmid.nas_transaction_id)

	return qmi_helpers_write(qmid, req.bytes())
}

func qmi_nas_set_sys_selection(qmid *qmi_device) error {
	/* No restriction on mode. */
	var mode_pref uint16 = 0xffff

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Setting system selection preference", "mode_pref", mode_pref)
	}

	var req = create_qmi_request(QMI_SERVICE_NAS, qmid.nas_id,
		qmid.nas_transaction_id, QMI_NAS_SET_SYSTEM_SELECTION_PREFERENCE)
	req.add_tlv(QMI_NAS_TLV_SS_MODE, tlv_uint16(mode_pref))

	qmid.nas_state = NAS_SET_SYSTEM

	return qmi_nas_write(qmid, req)
}

func qmi_nas_send_indication_request(qmid *qmi_device) error {
	var req = create_qmi_request(QMI_SERVICE_NAS, qmid.nas_id,
		qmid.nas_transaction_id, QMI_NAS_INDICATION_REGISTER)
	req.add_tlv(QMI_NAS_TLV_IND_SYS_INFO, tlv_uint8(1))

	qmid.nas_state = NAS_IND_REQ

	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Configuring NAS indications")
	}

	return qmi_nas_write(qmid, req)
}

func qmi_nas_req_sys_info(qmid *qmi_device) error {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Requesting initial SYS_INFO")
	}

	var req = create_qmi_request(QMI_SERVICE_NAS, qmid.nas_id,
		qmid.nas_transaction_id, QMI_NAS_GET_SYS_INFO)

	return qmi_nas_write(qmid, req)
}

/*
 * Send the message the state machine is waiting to send.
 */

func qmi_nas_send(qmid *qmi_device) {
	switch qmid.nas_state {
	case NAS_GOT_CID, NAS_SET_SYSTEM:
		qmi_nas_set_sys_selection(qmid)
	case NAS_IND_REQ:
		qmi_nas_send_indication_request(qmid)
	case NAS_SYS_INFO_QUERY:
		qmi_nas_req_sys_info(qmid)
	case NAS_IDLE:
	}
}

func qmi_nas_handle_system_selection(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Received SYSTEM_SELECTION_RESP")
	}

	var result, _, ok = frame.result()
	if !ok || result == QMI_RESULT_FAILURE {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Error("Could not set system selection")
		}
		return QMI_MSG_FAILURE
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Successfully set system selection preference")
	}

	qmid.nas_state = NAS_IND_REQ
	qmi_nas_send(qmid)

	return QMI_MSG_SUCCESS
}

func qmi_nas_handle_ind_req_reply(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Received SET_INDICATION_RESP")
	}

	var result, _, ok = frame.result()
	if !ok || result == QMI_RESULT_FAILURE {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Error("Could not register indications")
		}
		return QMI_MSG_FAILURE
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Successfully set NAS indications")
	}

	qmid.nas_state = NAS_SYS_INFO_QUERY
	qmi_nas_send(qmid)

	return QMI_MSG_SUCCESS
}

/*-------------------------------------------------------------------
 *
 * Name:	qmi_nas_handle_sys_info
 *
 * Purpose:	Process a GET_SYS_INFO reply or a SYS_INFO indication.
 *
 * Description:	The frame carries one service-status TLV per radio
 *		technology; the first byte of each is srv_status.  The
 *		first TLV in wire order reporting SRV wins.  The reply
 *		to our initial query (transaction id nonzero) leads
 *		with a result TLV which is checked and skipped;
 *		indications have none.
 *
 *		WDS is updated only when service toggles between none
 *		and some technology.  A change from one technology to
 *		another is autoconnect's business, not ours.
 *
 *---------------------------------------------------------------*/

func qmi_nas_handle_sys_info(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
		qmid_log.Debug("Received SYS_INFO_RESP/IND")
	}

	var tlvs = frame.tlvs

	/* Indications are identified by transaction_id == 0 and have
	 * no result TLV.  Nonzero means the reply to our initial
	 * sys_info request. */
	if frame.transaction != 0 {
		var result, _, ok = frame.result()
		if !ok || result == QMI_RESULT_FAILURE {
			return QMI_MSG_FAILURE
		}

		tlvs = tlvs[1:]
	}

	var cur_service = NO_SERVICE

	for _, tlv := range tlvs {
		if cur_service != NO_SERVICE {
			break
		}

		switch tlv.tlv_type {
		case QMI_NAS_TLV_SI_GSM_SS, QMI_NAS_TLV_SI_WCDMA_SS, QMI_NAS_TLV_SI_LTE_SS:
			if len(tlv.value) < 1 {
				continue
			}

			switch tlv.tlv_type {
			case QMI_NAS_TLV_SI_GSM_SS:
				cur_service = SERVICE_GSM
			case QMI_NAS_TLV_SI_WCDMA_SS:
				cur_service = SERVICE_UMTS
			case QMI_NAS_TLV_SI_LTE_SS:
				cur_service = SERVICE_LTE
			}

			if tlv.value[0] != QMI_NAS_TLV_SI_SRV_STATUS_SRV {
				cur_service = NO_SERVICE
			}
		}
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 && cur_service != qmid.cur_service {
		if cur_service != NO_SERVICE {
			qmid_log.Info("Modem is connected", "technology", qmi_technology_names[cur_service])
		} else {
			qmid_log.Info("Modem has no service")
		}
	}

	if cur_service != qmid.cur_service {
		session_log_write("service", "technology %s", qmi_technology_names[cur_service])
	}

	/* Update the connection when service is gained or lost.  Any
	 * technology change is dealt with by autoconnect. */
	if (qmid.cur_service != NO_SERVICE && cur_service == NO_SERVICE) ||
		(qmid.cur_service == NO_SERVICE && cur_service != NO_SERVICE) {
		qmid.cur_service = cur_service
		qmi_wds_update_connect(qmid)
	} else {
		qmid.cur_service = cur_service
	}

	return QMI_MSG_SUCCESS
}

func (nas_service) handle_msg(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	switch frame.message {
	case QMI_NAS_SET_SYSTEM_SELECTION_PREFERENCE:
		return qmi_nas_handle_system_selection(qmid, frame)
	case QMI_NAS_INDICATION_REGISTER:
		return qmi_nas_handle_ind_req_reply(qmid, frame)
	case QMI_NAS_GET_SYS_INFO, QMI_NAS_SYS_INFO_IND:
		/* The result TLV is only included in the initial
		 * SYS_INFO request.  A failure there is critical. */
		return qmi_nas_handle_sys_info(qmid, frame)
	default:
		if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
			qmid_log.Debug("Unknown NAS message", "message", frame.message)
		}
		return QMI_MSG_IGNORE
	}
}
