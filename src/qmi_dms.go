package qmid

/*------------------------------------------------------------------
 *
 * Purpose:   	DMS service engine.
 *
 * Description:	DMS is only here to unlock the SIM.  When no PIN is
 *		configured the startup hook marks the SIM unlocked and
 *		never touches the wire.  A VERIFY_PIN failure is
 *		logged but not fatal; retrying with a different code
 *		is a job for whoever launched us.
 *
 *---------------------------------------------------------------*/

type dms_service struct{}

func (dms_service) service_type() uint8 {
	return QMI_SERVICE_DMS
}

func (dms_service) on_startup(qmid *qmi_device) {
	if qmid.pin_code == "" {
		qmid.pin_unlocked = true
		return
	}

	qmi_dms_send(qmid)
}

func (dms_service) on_shutdown(qmid *qmi_device) {
}

func qmi_dms_write(qmid *qmi_device, req *qmi_request) error {
	next_transaction_16(&qmid.dms_transaction_id)

	return qmi_helpers_write(qmid, req.bytes())
}

/*
 * The PIN TLV carries (pin id, digit count, ASCII digits).
 */

func qmi_dms_send(qmid *qmi_device) error {
	if qmid.dms_state != DMS_GOT_CID {
		return nil
	}

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("Verifying PIN")
	}

	var value = append([]byte{QMI_DMS_PIN_ID_PIN1, uint8(len(qmid.pin_code))},
		[]byte(qmid.pin_code)...)

	var req = create_qmi_request(QMI_SERVICE_DMS, qmid.dms_id,
		qmid.dms_transaction_id, QMI_DMS_VERIFY_PIN)
	req.add_tlv(QMI_DMS_TLV_PIN, value)

	qmid.dms_state = DMS_VERIFY_PIN

	return qmi_dms_write(qmid, req)
}

func qmi_dms_handle_verify_pin(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	var result, errcode, ok = frame.result()
	if !ok || result == QMI_RESULT_FAILURE {
		if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
			qmid_log.Warn("PIN verification failed", "error", errcode)
		}
		return QMI_MSG_IGNORE
	}

	qmid.pin_unlocked = true

	if qmid_verbose_logging >= QMID_LOG_LEVEL_1 {
		qmid_log.Info("PIN verified")
	}

	session_log_write("pin", "SIM unlocked")

	return QMI_MSG_SUCCESS
}

func (dms_service) handle_msg(qmid *qmi_device, frame *qmux_frame) qmi_msg_status {
	switch frame.message {
	case QMI_DMS_VERIFY_PIN:
		return qmi_dms_handle_verify_pin(qmid, frame)
	default:
		if qmid_verbose_logging >= QMID_LOG_LEVEL_2 {
			qmid_log.Debug("Unknown DMS message", "message", frame.message)
		}
		return QMI_MSG_IGNORE
	}
}
