package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供 method/path/请求 ID 字段，供一次 dispatch 内的日志复用。
// requestID 为空时省略该字段。
func RequestFields(method, path, requestID string) logrus.Fields {
	fields := logrus.Fields{
		"method": method,
		"path":   path,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

// StackFields 描述中间件栈的组装结果，供启动与诊断日志使用。
func StackFields(names []string, sealed bool) logrus.Fields {
	return logrus.Fields{
		"middleware": names,
		"depth":      len(names),
		"sealed":     sealed,
	}
}
